// Package adapters wires the concrete adapters behind the command ports.
package adapters

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"dmt/internal/adapters/docx"
	"dmt/internal/adapters/filesystem"
	"dmt/internal/adapters/pandoc"
	"dmt/internal/application/commands"
	"dmt/internal/config"
	"dmt/internal/logging"
)

// New builds the adapters for cfg. cfg must have passed config.Validate.
func New(cfg *config.Config) commands.Adapters {
	minVersion, err := cfg.MinVersion()
	if err != nil {
		minVersion = pandoc.MinimumVersion
	}
	return commands.Adapters{
		Converter: pandoc.NewRunner(
			pandoc.WithBinary(filesystem.ExpandHome(cfg.Pandoc.Binary)),
			pandoc.WithMinVersion(minVersion),
			pandoc.WithLogger(log.Logger),
		),
		Package:    docx.NewCodec(),
		Workspaces: filesystem.NewWorkspaceFactory(),
		Media:      filesystem.NewMediaTracker(),
	}
}

// Load reads the configuration at path (or the default locations), sets up
// logging and builds the adapters. A non-empty level overrides log.level.
func Load(path, level string, verbose bool) (*config.Config, commands.Adapters, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, commands.Adapters{}, err
	}
	if level != "" {
		cfg.Log.Level = level
	}
	if err := config.Validate(cfg); err != nil {
		return nil, commands.Adapters{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Verbose: verbose}); err != nil {
		return nil, commands.Adapters{}, err
	}
	return cfg, New(cfg), nil
}
