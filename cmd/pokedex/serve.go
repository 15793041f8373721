package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/pokedex/internal/api"
	"github.com/jbweber/homelab/pokedex/internal/ratelimiter"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	port string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serves the pokemon API, a health check on / and prometheus metrics on /metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.port, "port", "p", "", "Listen port (overrides config)")

	return cmd
}

func runServe(ctx context.Context, flags serveFlags) error {
	return withDeps(ctx, func(d *deps) error {
		if flags.port != "" {
			d.cfg.Server.Port = flags.port
		}

		limiter := ratelimiter.New(d.cfg.Server.RateLimit.RPS, d.cfg.Server.RateLimit.Burst, 10*time.Minute)
		router := api.NewAPI(d.service, api.Options{
			Logger:  d.logger,
			Metrics: d.metrics,
			Limiter: limiter,
		}).Router()

		srv := &http.Server{
			Addr:              d.cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			d.logger.Info("pokedex listening", "addr", srv.Addr, "driver", d.cfg.Database.Driver)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		d.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		d.logger.Info("pokedex stopped cleanly")
		return nil
	})
}
