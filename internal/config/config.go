package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rapaev95/ephemeris-agpl-service/internal/adapters/auth"
	"github.com/rapaev95/ephemeris-agpl-service/internal/buildinfo"
)

const (
	EngineAnalytic = "analytic"
	EngineRemote   = "remote"
)

type Config struct {
	HTTPAddr    string
	LogLevel    slog.Level
	APIKeys     []string
	CORSOrigins []string

	Engine           string
	RemoteURL        string
	RemoteAPIKey     string
	EphemerisTimeout time.Duration
	Serialize        bool

	Build buildinfo.Info
}

// fileConfig is the optional YAML file. Environment variables win over it.
type fileConfig struct {
	HTTPAddr    string   `yaml:"http_addr"`
	LogLevel    string   `yaml:"log_level"`
	APIKeys     []string `yaml:"api_keys"`
	CORSOrigins []string `yaml:"cors_origins"`
	RepoURL     string   `yaml:"repo_url"`
	Ephemeris   struct {
		Engine       string `yaml:"engine"`
		RemoteURL    string `yaml:"remote_url"`
		RemoteAPIKey string `yaml:"remote_api_key"`
		Timeout      string `yaml:"timeout"`
		Serialize    *bool  `yaml:"serialize"`
	} `yaml:"ephemeris"`
}

// Load reads an optional .env file, then the YAML file at path (or
// $EPHEMD_CONFIG), then the environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var fc fileConfig
	if path == "" {
		path = os.Getenv("EPHEMD_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	build := buildinfo.Default()
	c := Config{
		HTTPAddr:     envOr("HTTP_ADDR", or(fc.HTTPAddr, ":8080")),
		Engine:       strings.ToLower(envOr("EPHEMERIS_ENGINE", or(fc.Ephemeris.Engine, EngineAnalytic))),
		RemoteURL:    envOr("EPHEMERIS_REMOTE_URL", fc.Ephemeris.RemoteURL),
		RemoteAPIKey: envOr("EPHEMERIS_REMOTE_API_KEY", fc.Ephemeris.RemoteAPIKey),
		APIKeys:      fc.APIKeys,
		CORSOrigins:  fc.CORSOrigins,
		Build: buildinfo.Info{
			Commit:    envOr("GIT_COMMIT", build.Commit),
			Tag:       envOr("BUILD_TAG", build.Tag),
			BuildTime: envOr("BUILD_TIME_UTC", build.BuildTime),
			RepoURL:   envOr("GITHUB_REPO_URL", or(fc.RepoURL, build.RepoURL)),
		},
	}

	// AGPL_SERVICE_API_KEYS takes precedence over the single-key form.
	if v := envOr("AGPL_SERVICE_API_KEYS", os.Getenv("AGPL_SERVICE_API_KEY")); v != "" {
		c.APIKeys = auth.ParseKeys(v)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = auth.ParseKeys(v)
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}

	timeout := envOr("EPHEMERIS_TIMEOUT", or(fc.Ephemeris.Timeout, "10s"))
	d, err := time.ParseDuration(timeout)
	if err != nil || d <= 0 {
		return Config{}, fmt.Errorf("invalid EPHEMERIS_TIMEOUT %q", timeout)
	}
	c.EphemerisTimeout = d

	if fc.Ephemeris.Serialize != nil {
		c.Serialize = *fc.Ephemeris.Serialize
	}
	if v := os.Getenv("EPHEMERIS_SERIALIZE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid EPHEMERIS_SERIALIZE %q: %w", v, err)
		}
		c.Serialize = b
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", or(fc.LogLevel, "info")))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	switch c.Engine {
	case EngineAnalytic:
	case EngineRemote:
		if c.RemoteURL == "" {
			return Config{}, fmt.Errorf("EPHEMERIS_REMOTE_URL is required when EPHEMERIS_ENGINE=remote")
		}
	default:
		return Config{}, fmt.Errorf("invalid EPHEMERIS_ENGINE %q", c.Engine)
	}

	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
