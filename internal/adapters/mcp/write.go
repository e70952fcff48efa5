package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"dmt/internal/application/commands"
)

// RegisterWriteTools adds the conversion tools.
func RegisterWriteTools(s *server.MCPServer, adapters commands.Adapters) {
	s.AddTool(docxToMarkdownTool(), docxToMarkdownHandler(adapters))
	s.AddTool(markdownToDocxTool(), markdownToDocxHandler(adapters))
}

// --- docx_to_markdown ---

func docxToMarkdownTool() mcp.Tool {
	return mcp.NewTool("docx_to_markdown",
		mcp.WithDescription("Convert a .docx file to markdown. Comment threads become milestone tokens around their anchors and nested comment cards."),
		mcp.WithString("input",
			mcp.Description("Path to the .docx file"),
			mcp.Required(),
		),
		mcp.WithString("output",
			mcp.Description("Output markdown path. Defaults to the input with a .md extension."),
		),
		mcp.WithString("pandoc_args",
			mcp.Description("Extra pandoc arguments separated by spaces, e.g. \"--wrap=none -t gfm\""),
		),
	)
}

func docxToMarkdownHandler(adapters commands.Adapters) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := req.GetString("input", "")
		if input == "" {
			return toolError(fmt.Errorf("input is required"))
		}

		cmd := commands.NewDocx2MdCommand(adapters, input, req.GetString("output", ""), pandocArgs(req))
		res, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(res.Message), nil
	}
}

// --- markdown_to_docx ---

func markdownToDocxTool() mcp.Tool {
	return mcp.NewTool("markdown_to_docx",
		mcp.WithDescription("Convert markdown with comment cards back to .docx, restoring replies and resolution state as native Word threads."),
		mcp.WithString("input",
			mcp.Description("Path to the markdown file"),
			mcp.Required(),
		),
		mcp.WithString("output",
			mcp.Description("Output .docx path. Defaults to the input with a .docx extension."),
		),
		mcp.WithString("reference_doc",
			mcp.Description("Reference .docx used for styles"),
		),
		mcp.WithString("pandoc_args",
			mcp.Description("Extra pandoc arguments separated by spaces, e.g. \"--toc\""),
		),
	)
}

func markdownToDocxHandler(adapters commands.Adapters) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := req.GetString("input", "")
		if input == "" {
			return toolError(fmt.Errorf("input is required"))
		}

		cmd := commands.NewMd2DocxCommand(adapters, input, req.GetString("output", ""), pandocArgs(req))
		cmd.ReferenceDoc = req.GetString("reference_doc", "")
		res, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(res.Message), nil
	}
}

func pandocArgs(req mcp.CallToolRequest) []string {
	return strings.Fields(req.GetString("pandoc_args", ""))
}
