package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/necyberteam/qabot/internal/logging"
	mcpAdapter "github.com/necyberteam/qabot/pkg/adapters/mcp"
	"github.com/necyberteam/qabot/pkg/adapters/memory"
	"github.com/necyberteam/qabot/pkg/session"
	"github.com/necyberteam/qabot/pkg/submit"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the assistant as an MCP server so AI agents can drive
conversations as tools.

Supported transports:
- stdio (default): standard input/output, for local process integration.
- sse: Server-Sent Events over HTTP, for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
			cfg.LogLevel = flag
		}
		level, err := parseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		logger := logging.New(level)

		if cfg.Tickets.BaseURL == "" {
			return fmt.Errorf("ticket proxy URL is required (tickets.base_url)")
		}

		srv, err := mcpAdapter.NewServer(mcpAdapter.Config{
			Sessions:  session.NewManager(memory.NewStore(), session.WithLogger(logger)),
			Tickets:   submit.NewClient(cfg.Tickets.BaseURL, submit.WithLogger(logger)),
			QueryBase: cfg.Query.BaseURL,
			QueryKey:  cfg.Query.APIKey,
			Dev:       cfg.DevDesk,
			Logger:    logger,
		})
		if err != nil {
			return err
		}

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			logger.Info("starting mcp server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("starting mcp server (sse)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && err != http.ErrServerClosed {
				return err
			}
			logger.Info("mcp server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
