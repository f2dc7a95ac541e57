package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpadapter "github.com/rulegate/rulegate/internal/adapter/inbound/mcp"
	"github.com/rulegate/rulegate/internal/config"
	"github.com/rulegate/rulegate/internal/service"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve capabilities over MCP stdio",
	Long: `Serve the enforcement gate over MCP on stdin/stdout.

One stdio connection is one session: the gate starts with empty state and the
connecting planner drives it with check_weather, buy_item, and
choose_activity tool calls.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		engine, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		auditStore, err := buildAuditStore(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := auditStore.Close(); err != nil {
				logger.Warn("audit store close failed", "error", err)
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		gate := service.NewGate(engine,
			service.WithSessionID("stdio"),
			service.WithAuditStore(auditStore),
			service.WithLogger(logger),
		)

		logger.Info("mcp server starting on stdio")
		return mcpadapter.New(gate, Version, logger).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
