// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/desk-researcher/internal/config"
	"github.com/pdiddy/desk-researcher/internal/runs"
	"github.com/pdiddy/desk-researcher/internal/server"
)

// shutdownTimeout bounds graceful shutdown including in-flight async runs.
const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the research HTTP API",
	Long: `Serve exposes POST /api/research, GET /api/research/{id}, GET /api/status and
GET /health. Research requests run synchronously unless "async": true is set,
in which case the run is recorded in the run ledger and can be polled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Server.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}

		ctx := cmd.Context()
		a, err := newResearchApp(ctx, config.NeedAll)
		if err != nil {
			return err
		}
		defer a.Close()

		ledger, err := runs.Open(cfg.Runs, logger)
		if err != nil {
			return err
		}
		defer ledger.Close()
		a.engine.Observer = ledger

		components := server.Components{
			StoreBackend:    cfg.Store.Backend,
			AIConfigured:    cfg.AI.APIKey != "",
			EmailConfigured: cfg.Email.APIKey != "",
		}
		if p, ok := a.store.(server.Pinger); ok {
			components.Store = p
		}
		srv := server.New(a.engine, ledger, components, cfg.Server, version, logger)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (default from server.host)")
	serveCmd.Flags().Int("port", 0, "listen port (default from server.port)")

	rootCmd.AddCommand(serveCmd)
}
