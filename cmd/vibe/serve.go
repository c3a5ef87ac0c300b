package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpAdapter "github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/adapters/http"
	mcpAdapter "github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/adapters/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine as a server",
	Long: `Runs the engine on the configured transport:

  stdio  MCP over stdin/stdout (default; what a coding agent connects to)
  sse    MCP over Server-Sent Events
  http   REST API with OpenAPI request validation`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := buildEngine(cmd)
		if err != nil {
			return err
		}

		if transport, _ := cmd.Flags().GetString("transport"); transport != "" {
			env.cfg.Server.Transport = transport
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		switch env.cfg.Server.Transport {
		case "stdio":
			return mcpAdapter.NewServer(env.engine, env.logger).ServeStdio()
		case "sse":
			return mcpAdapter.NewServer(env.engine, env.logger).ServeSSE(ctx, env.cfg.Server.SSEPort)
		case "http":
			handler, err := httpAdapter.NewHandler(env.engine, env.logger, metricsHandler(env))
			if err != nil {
				return err
			}
			return httpAdapter.Serve(ctx, env.cfg.Server.HTTPAddr, handler, env.logger)
		default:
			return fmt.Errorf("unknown transport %q (want stdio, sse or http)", env.cfg.Server.Transport)
		}
	},
}

func metricsHandler(env *buildEnv) http.Handler {
	if env.metrics == nil {
		return nil
	}
	return env.metrics.Handler()
}

func init() {
	serveCmd.Flags().String("transport", "", "Override the configured transport (stdio, sse, http)")
	rootCmd.AddCommand(serveCmd)
}
