package cmd

import (
	"github.com/spf13/cobra"

	"dmt/internal/application"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare comment threads between two documents (planned)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return &application.NotImplementedError{Command: "diff"}
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
