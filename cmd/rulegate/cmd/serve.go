package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rulegate/rulegate/internal/adapter/inbound/httpapi"
	"github.com/rulegate/rulegate/internal/adapter/outbound/memory"
	"github.com/rulegate/rulegate/internal/config"
	"github.com/rulegate/rulegate/internal/service"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the rulegate HTTP API.

Each client session gets its own isolated state store; all sessions share the
immutable rule engine. Violations come back in-band as ok=false results.`,
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

		// stop() restores default signal handling so a second Ctrl+C does
		// a hard kill.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		registry := memory.NewSessionRegistry()
		registry.StartCleanup(ctx)
		defer registry.Stop()

		sessions := service.NewSessionManager(registry,
			service.SessionConfig{Timeout: cfg.SessionTimeout()},
			func(sessionID string) *service.Gate {
				return service.NewGate(engine,
					service.WithSessionID(sessionID),
					service.WithAuditStore(auditStore),
					service.WithLogger(logger),
				)
			})

		promRegistry := prometheus.NewRegistry()
		metrics := httpapi.NewMetrics(promRegistry)
		handler := httpapi.NewHandler(sessions, engine, metrics, promRegistry, logger)

		server := &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
			errCh <- server.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return nil
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
