package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"dmt/internal/adapters/editor"
	"dmt/internal/application/commands"
)

var checkEdit bool

var checkCmd = &cobra.Command{
	Use:   "check <file.md>",
	Short: "Validate milestone tokens and comment cards without converting",
	Long: `Decode the comment cards and milestone tokens of a markdown file and run
the marker and thread checks md2docx performs, without writing anything.
With --edit, a failed check opens $EDITOR at the first reported line.

Example:
  dmt check review.md --edit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := commands.NewCheckCommand(adapters, args[0], pandocArgs()).Execute(context.Background())
		if err != nil {
			if checkEdit {
				if line := commands.IssueLine(err); line > 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					if oerr := editor.NewOpener().OpenFile(args[0], line); oerr != nil {
						return fmt.Errorf("failed to open editor: %w", oerr)
					}
				}
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkEdit, "edit", false, "open $EDITOR at the first reported line on failure")
	rootCmd.AddCommand(checkCmd)
}
