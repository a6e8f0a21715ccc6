package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/tesoro/internal/cli"
	"github.com/aretw0/tesoro/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine and exposes the game as MCP tools, so an agent can play.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		if transport != "stdio" && transport != "sse" {
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		client, err := cli.OpenClient(sigCtx, cfg, cli.OpenOptions{Logger: logger, Sync: true})
		if err != nil {
			return err
		}
		defer client.Close()

		srv := mcp.NewServer(client, mcp.WithLogger(logger))

		if transport == "stdio" {
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting Tesoro MCP Server (Stdio)")
			return srv.ServeStdio()
		}

		logger.Info("Starting Tesoro MCP Server (SSE)", "port", port)
		if err := srv.ServeSSE(sigCtx, port); err != nil {
			return err
		}
		logger.Info("MCP Server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
