package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"dmt/internal/adapters/pandoc"
)

// EnvPrefix prefixes every environment override, e.g. DMT_PANDOC_BINARY
const EnvPrefix = "DMT_"

// Config represents the dmt configuration
type Config struct {
	Pandoc struct {
		Binary     string   `koanf:"binary"`
		MinVersion string   `koanf:"min_version"`
		ExtraArgs  []string `koanf:"extra_args"`
	} `koanf:"pandoc"`

	Docx struct {
		ReferenceDoc string `koanf:"reference_doc"`
	} `koanf:"docx"`

	Markdown struct {
		Writer string `koanf:"writer"`
	} `koanf:"markdown"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`
}

var defaults = map[string]interface{}{
	"pandoc.binary":      "pandoc",
	"pandoc.min_version": "2.14",
	"log.level":          "warn",
	"log.format":         "console",
}

// DefaultPaths lists the config files tried in order when no path is given
func DefaultPaths() []string {
	paths := []string{"./.dmt.toml"}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "dmt", "config.toml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "dmt", "config.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".dmt.toml"))
	}
	return paths
}

// envKey maps DMT_PANDOC_MIN_VERSION to pandoc.min_version: only the first
// underscore after the prefix separates the section.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// LoadConfig loads defaults, then the TOML file, then DMT_ environment
// variables. An explicit configPath must exist.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		for _, path := range DefaultPaths() {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", path, err)
			}
			break
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &config, nil
}

// Default returns the configuration used when nothing is configured
func Default() *Config {
	var config Config
	config.Pandoc.Binary = defaults["pandoc.binary"].(string)
	config.Pandoc.MinVersion = defaults["pandoc.min_version"].(string)
	config.Log.Level = defaults["log.level"].(string)
	config.Log.Format = defaults["log.format"].(string)
	return &config
}

// MinVersion parses pandoc.min_version
func (c *Config) MinVersion() (pandoc.Version, error) {
	v, ok := pandoc.ParseVersion(c.Pandoc.MinVersion)
	if !ok {
		return pandoc.Version{}, fmt.Errorf("invalid pandoc.min_version %q", c.Pandoc.MinVersion)
	}
	return v, nil
}

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true, "disabled": true,
}

// Validate validates the configuration
func Validate(config *Config) error {
	if strings.TrimSpace(config.Pandoc.Binary) == "" {
		return fmt.Errorf("pandoc binary is required")
	}
	if _, err := config.MinVersion(); err != nil {
		return err
	}
	if !logLevels[strings.ToLower(config.Log.Level)] {
		return fmt.Errorf("unknown log level %q", config.Log.Level)
	}
	switch strings.ToLower(config.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q (use console or json)", config.Log.Format)
	}
	return nil
}

const sampleConfig = `# dmt configuration
#
# Environment variables override this file: DMT_PANDOC_BINARY,
# DMT_PANDOC_MIN_VERSION, DMT_LOG_LEVEL, ...

[pandoc]
binary = "pandoc"
min_version = "2.14"
# Arguments prepended to every pandoc invocation.
extra_args = []

[docx]
# Reference document used for md2docx styles.
# reference_doc = "~/templates/reference.docx"

[markdown]
# Writer used for docx2md; empty derives it from -t/--to, else markdown.
writer = ""

[log]
level = "warn"
format = "console"
`

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}
	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}
