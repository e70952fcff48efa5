package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	wiring "dmt/internal/adapters"
	"dmt/internal/adapters/filesystem"
	"dmt/internal/application"
	"dmt/internal/application/commands"
	"dmt/internal/config"
	"dmt/internal/ports"
)

var (
	configPath  string
	logLevel    string
	verbose     bool
	showVersion bool
	outputPath  string

	cfg         *config.Config
	adapters    commands.Adapters
	forwardArgs []string
)

var rootCmd = &cobra.Command{
	Use:   "dmt [file] [pandoc args...]",
	Short: "Round-trip Word documents through Markdown without losing comment threads",
	Long: `dmt converts .docx to Markdown and back with pandoc while keeping Word
comment threads intact: replies, resolution state and stable ids survive
the round trip as milestone tokens and comment cards.

The conversion direction follows the input extension. Flags dmt does not
know are passed to pandoc unchanged.

Examples:
  dmt review.docx
  dmt review.md -o final.docx --toc
  dmt review.docx -t gfm --wrap=none`,
	Args:              cobra.MaximumNArgs(1),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion(cmd)
			return nil
		}
		if len(args) == 0 {
			return cmd.Help()
		}

		auto := commands.NewAutoCommand(adapters, args[0], outputPath, pandocArgs())
		auto.ReferenceDoc = referenceDoc()
		auto.Writer = cfg.Markdown.Writer
		res, err := auto.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	},
}

// Execute runs the root command and exits with the matching status
func Execute() {
	known, passthrough := splitArgs(os.Args[1:], commandNames())
	forwardArgs = passthrough
	rootCmd.SetArgs(known)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./.dmt.toml, then $XDG_CONFIG_HOME/dmt/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stages")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "V", false, "print the version")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: input with the target extension)")
	rootCmd.Flags().StringVarP(&refDocFlag, "ref", "r", "", "reference docx for md2docx styles")
}

// setup loads configuration, logging and the adapters shared by every
// conversion command
func setup(cmd *cobra.Command, args []string) error {
	switch cmd.Name() {
	case "help", "completion", "version", "init":
		return nil
	}
	if showVersion {
		return nil
	}

	c, a, err := wiring.Load(configPath, logLevel, verbose)
	if err != nil {
		return err
	}
	cfg, adapters = c, a
	return nil
}

// pandocArgs returns configured extra arguments followed by the ones
// forwarded from the command line
func pandocArgs() []string {
	args := append([]string{}, cfg.Pandoc.ExtraArgs...)
	return append(args, forwardArgs...)
}

// referenceDoc picks the flag value, else the configured default
func referenceDoc() string {
	path := refDocFlag
	if path == "" {
		path = cfg.Docx.ReferenceDoc
	}
	if path == "" {
		return ""
	}
	return filesystem.ExpandHome(path)
}

func commandNames() map[string]bool {
	names := map[string]bool{"help": true}
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		for _, sub := range c.Commands() {
			names[sub.Name()] = true
			for _, alias := range sub.Aliases {
				names[alias] = true
			}
			walk(sub)
		}
	}
	walk(rootCmd)
	return names
}

// exitCode maps converter failures and planned commands to 2
func exitCode(err error) int {
	var convErr *ports.ConverterError
	if errors.As(err, &convErr) || errors.Is(err, application.ErrNotImplemented) {
		return 2
	}
	return 1
}

func printVersion(cmd *cobra.Command) {
	fmt.Fprintf(cmd.OutOrStdout(), "dmt %s\n", application.Version)
}
