package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dmt/internal/adapters/filesystem"
	"dmt/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the dmt configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented sample configuration",
	Long: `Write a sample configuration file. Without a path the first default
location is used (./.dmt.toml).

Example:
  dmt config init ~/.config/dmt/config.toml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPaths()[0]
		if len(args) == 1 {
			path = filesystem.ExpandHome(args[0])
		}
		if err := config.InitConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote configuration to %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
