package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rapaev95/ephemeris-agpl-service/internal/adapters/auth"
	httpadapter "github.com/rapaev95/ephemeris-agpl-service/internal/adapters/http"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides HTTP_ADDR)")

	return cmd
}

func runServe(ctx context.Context, addr string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.HTTPAddr = addr
	}

	keys := auth.NewKeySet(cfg.APIKeys)
	if keys.Open() {
		logger.Warn("no API keys configured; any bearer token is accepted")
	}

	services := buildServices(buildOracle(cfg, logger))
	handler := httpadapter.NewHandler(services, cfg.Build)
	e := httpadapter.NewServer(handler, keys, cfg.CORSOrigins, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTPAddr,
			"engine", services.Engine,
			"serialized", cfg.Serialize,
			"api_keys", keys.Len(),
			"source", cfg.Build.SourceHeader(),
		)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}
