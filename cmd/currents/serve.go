package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/currentslabs/currents/config"
	"github.com/currentslabs/currents/metrics"
	"github.com/currentslabs/currents/server"
)

// buildServeCmd creates the "serve" command that starts the HTTP
// server.
func buildServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Currents HTTP server",
		Long: `Start the Currents HTTP server.

The server will:
1. Load configuration from the specified file (or currents.yaml)
2. Open the conversation store (memory or sqlite)
3. Connect the chat model and tools
4. Serve the chat API, health probes, and Prometheus metrics

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		Example: `  # Start with default config
  currents serve

  # Start with custom config
  currents serve --config /etc/currents/production.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to YAML configuration file")

	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateSecrets(); err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	agent, mcp, err := buildAgent(cfg, st, logger, m)
	if err != nil {
		return err
	}

	srv := server.New(agent, st,
		server.WithLogger(logger),
		server.WithMetrics(m),
		server.WithHealthProber(mcp),
		server.WithCORSOrigins(cfg.Server.CORSOrigins),
	)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting currents server",
		"addr", cfg.Server.Addr(),
		"model", cfg.Model.Name,
		"store", cfg.Store.Driver,
		"version", version,
	)
	if err := srv.Run(ctx, cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("currents server stopped")
	return nil
}
