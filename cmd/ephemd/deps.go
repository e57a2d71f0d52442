package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/rapaev95/ephemeris-agpl-service/internal/adapters/ephemeris"
	"github.com/rapaev95/ephemeris-agpl-service/internal/adapters/ephemeris/analytic"
	"github.com/rapaev95/ephemeris-agpl-service/internal/adapters/ephemeris/remote"
	httpadapter "github.com/rapaev95/ephemeris-agpl-service/internal/adapters/http"
	"github.com/rapaev95/ephemeris-agpl-service/internal/app"
	"github.com/rapaev95/ephemeris-agpl-service/internal/config"
	"github.com/rapaev95/ephemeris-agpl-service/internal/ports"
)

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("loading config: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// buildOracle constructs the configured engine once; it is shared by every
// request and never mutated afterwards.
func buildOracle(cfg config.Config, logger *slog.Logger) ports.Ephemeris {
	var oracle ports.Ephemeris
	switch cfg.Engine {
	case config.EngineRemote:
		oracle = remote.NewClient(&http.Client{Timeout: cfg.EphemerisTimeout}, cfg.RemoteAPIKey, cfg.RemoteURL, logger)
	default:
		oracle = analytic.New(analytic.DefaultConfig())
	}
	if cfg.Serialize {
		oracle = ephemeris.NewSerialized(oracle)
	}
	return oracle
}

func buildServices(oracle ports.Ephemeris) httpadapter.Services {
	return httpadapter.Services{
		Positions:  app.NewPositionService(oracle),
		Houses:     app.NewHouseService(oracle),
		DesignTime: app.NewDesignTimeService(oracle),
		Engine:     ephemeris.EngineName(oracle),
	}
}
