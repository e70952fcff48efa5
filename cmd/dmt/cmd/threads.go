package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dmt/internal/adapters/editor"
	"dmt/internal/adapters/tui"
	"dmt/internal/adapters/tui/styles"
	"dmt/internal/application/commands"
)

var (
	threadsJSON   bool
	threadsBrowse bool
	statsJSON     bool
)

const anchorExcerpt = 40

var threadsCmd = &cobra.Command{
	Use:   "threads <file>",
	Short: "Show the comment threads of a docx or markdown file",
	Long: `Print every comment thread as a tree: id, author, state, the first line
of the body and an excerpt of the anchored text.

Examples:
  dmt threads review.docx
  dmt threads review.md --json
  dmt threads review.md --browse`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := commands.NewThreadsCommand(adapters, args[0], pandocArgs()).Execute(context.Background())
		if err != nil {
			return err
		}

		switch {
		case threadsBrowse:
			return tui.Run(res.Path, res.Graph, editor.NewOpener())
		case threadsJSON:
			return writeJSON(cmd.OutOrStdout(), res.Entries)
		}

		printThreads(cmd.OutOrStdout(), res.Entries)
		fmt.Fprintln(cmd.OutOrStdout(), styles.MutedText.Render(res.Message))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Count the comments of a docx or markdown file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := commands.NewStatsCommand(adapters, args[0], pandocArgs()).Execute(context.Background())
		if err != nil {
			return err
		}
		if statsJSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		if len(res.Authors) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "authors: %s\n", strings.Join(res.Authors, ", "))
		}
		return nil
	},
}

func printThreads(w io.Writer, entries []commands.ThreadEntry) {
	for _, e := range entries {
		indent := strings.Repeat("  ", e.Depth)

		style := styles.NodeReply
		if e.Depth == 0 {
			style = styles.NodeRoot
		}
		if e.State == "resolved" {
			style = styles.NodeResolved
		}

		line := fmt.Sprintf("%s%s %s %s %s",
			indent,
			style.Render(e.ID),
			styles.Author.Render(e.Author),
			styles.StateBadge(e.State),
			e.Summary(),
		)
		if e.Depth == 0 && e.Anchor != "" {
			line += " " + styles.MutedText.Render(fmt.Sprintf("on %q", excerpt(e.Anchor, anchorExcerpt)))
		}
		fmt.Fprintln(w, line)
	}
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	threadsCmd.Flags().BoolVar(&threadsJSON, "json", false, "print the threads as JSON")
	threadsCmd.Flags().BoolVar(&threadsBrowse, "browse", false, "open the interactive thread browser")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the counts as JSON")
	rootCmd.AddCommand(threadsCmd)
	rootCmd.AddCommand(statsCmd)
}
