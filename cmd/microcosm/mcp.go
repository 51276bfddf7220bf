package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/microcosm"
	"github.com/aretw0/microcosm/internal/cli"
	mcpadapter "github.com/aretw0/microcosm/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [path]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the experiment as an MCP server, so AI agents can inspect the
state tree, step the scheduler and run to a horizon as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.RunOptions{DefinitionPath: definitionPath(args)}
		opts.Experiment, _ = cmd.Flags().GetString("experiment")
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs go to stderr either way; on stdio, stdout carries JSON-RPC.
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		slog.SetDefault(logger)

		def, err := cli.PrepareDefinition(context.Background(), opts, true)
		if err != nil {
			log.Fatalf("Error loading definition: %v", err)
		}
		exp, err := microcosm.FromDefinition(*def, nil, microcosm.WithLogger(logger))
		if err != nil {
			log.Fatalf("Error composing experiment: %v", err)
		}

		srv := mcpadapter.NewServer(exp)

		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			slog.Info("Starting Microcosm MCP server (stdio)", "experiment", def.Name)
			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP server execution failed", "error", err)
				os.Exit(1)
			}
		case "sse":
			slog.Info("Starting Microcosm MCP server (SSE)", "experiment", def.Name, "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					slog.Error("MCP server execution failed", "error", err)
					os.Exit(1)
				}
			}
			slog.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().StringP("experiment", "e", "", "Experiment name when the path is a repository")
}
