package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"dmt/internal/application/commands"
)

// RegisterReadTools adds the tools that inspect documents without writing.
func RegisterReadTools(s *server.MCPServer, adapters commands.Adapters) {
	s.AddTool(listThreadsTool(), listThreadsHandler(adapters))
	s.AddTool(threadStatsTool(), threadStatsHandler(adapters))
	s.AddTool(checkMarkdownTool(), checkMarkdownHandler(adapters))
}

// --- list_threads ---

func listThreadsTool() mcp.Tool {
	return mcp.NewTool("list_threads",
		mcp.WithDescription("List the comment threads of a .docx or markdown file. Each line shows id, author, state and the first body line, indented by reply depth."),
		mcp.WithString("input",
			mcp.Description("Path to a .docx or .md file"),
			mcp.Required(),
		),
	)
}

func listThreadsHandler(adapters commands.Adapters) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := req.GetString("input", "")
		if input == "" {
			return toolError(fmt.Errorf("input is required"))
		}

		res, err := commands.NewThreadsCommand(adapters, input, nil).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(res.Entries) == 0 {
			return mcp.NewToolResultText("No comments."), nil
		}
		return mcp.NewToolResultText(formatThreads(res.Entries) + res.Message), nil
	}
}

// --- thread_stats ---

func threadStatsTool() mcp.Tool {
	return mcp.NewTool("thread_stats",
		mcp.WithDescription("Count comments, roots, replies, resolved comments and authors of a .docx or markdown file."),
		mcp.WithString("input",
			mcp.Description("Path to a .docx or .md file"),
			mcp.Required(),
		),
	)
}

func threadStatsHandler(adapters commands.Adapters) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := req.GetString("input", "")
		if input == "" {
			return toolError(fmt.Errorf("input is required"))
		}

		res, err := commands.NewStatsCommand(adapters, input, nil).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(res.Message), nil
	}
}

// --- check_markdown ---

func checkMarkdownTool() mcp.Tool {
	return mcp.NewTool("check_markdown",
		mcp.WithDescription("Validate the milestone tokens and comment cards of a markdown file without converting it. Reports every marker and thread problem at once."),
		mcp.WithString("input",
			mcp.Description("Path to the markdown file"),
			mcp.Required(),
		),
	)
}

func checkMarkdownHandler(adapters commands.Adapters) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := req.GetString("input", "")
		if input == "" {
			return toolError(fmt.Errorf("input is required"))
		}

		res, err := commands.NewCheckCommand(adapters, input, nil).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(res.Message), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatThreads(entries []commands.ThreadEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s%s  %s  (%s)  %s\n", strings.Repeat("  ", e.Depth), e.ID, e.Author, e.State, e.Summary())
	}
	return sb.String()
}
