package main

import (
	"context"
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	wiring "dmt/internal/adapters"
	mcpadapter "dmt/internal/adapters/mcp"
	"dmt/internal/application"
)

func main() {
	configFlag := flag.String("config", "", "path to the dmt config file")
	flag.Parse()

	_, adapters, err := wiring.Load(*configFlag, "", false)
	if err != nil {
		log.Fatalf("dmt-mcp: %v", err)
	}

	mcpServer := server.NewMCPServer(
		"dmt-mcp",
		application.Version,
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, adapters)
	mcpadapter.RegisterWriteTools(mcpServer, adapters)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("dmt-mcp: %v", err)
	}
}
