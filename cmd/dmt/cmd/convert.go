package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"dmt/internal/application/commands"
)

var refDocFlag string

var docx2mdCmd = &cobra.Command{
	Use:     "docx2md <input.docx> [pandoc args...]",
	Aliases: []string{"d2m"},
	Short:   "Convert a Word document to Markdown with comment cards",
	Long: `Convert a .docx file to Markdown. Every root comment becomes a pair of
milestone tokens around its anchor and a comment card after the paragraph
that closes it; replies are nested inside their parent's card.

Example:
  dmt docx2md review.docx -o review.md --wrap=none`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d2m := commands.NewDocx2MdCommand(adapters, args[0], outputPath, pandocArgs())
		d2m.Writer = cfg.Markdown.Writer
		res, err := d2m.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	},
}

var md2docxCmd = &cobra.Command{
	Use:     "md2docx <input.md> [pandoc args...]",
	Aliases: []string{"m2d"},
	Short:   "Convert Markdown with comment cards back to a Word document",
	Long: `Convert a Markdown file produced by docx2md back to .docx. Milestone
tokens and cards are validated first; replies are restored as native
threaded comments together with their resolution state.

Example:
  dmt md2docx review.md -r reference.docx --toc`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m2d := commands.NewMd2DocxCommand(adapters, args[0], outputPath, pandocArgs())
		m2d.ReferenceDoc = referenceDoc()
		res, err := m2d.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	},
}

func init() {
	docx2mdCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output markdown file (default: input with .md)")
	md2docxCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output docx file (default: input with .docx)")
	md2docxCmd.Flags().StringVarP(&refDocFlag, "ref", "r", "", "reference docx for styles (default: docx.reference_doc)")
	rootCmd.AddCommand(docx2mdCmd)
	rootCmd.AddCommand(md2docxCmd)
}
