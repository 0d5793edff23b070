// Package config loads environment-driven settings for the CLI and the
// backend factory. A .env file in the working directory is honored when
// present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Backend selector values.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
)

// Defaults applied when the environment stays silent.
const (
	DefaultBaseURL    = "https://api.dealgrid.io"
	DefaultTimeout    = 30 * time.Second
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Config carries every knob the process reads once at startup.
type Config struct {
	Backend     string        // DEALGRID_BACKEND: "rest" (default) or "postgres"
	BaseURL     string        // DEALGRID_API_URL
	HTTPTimeout time.Duration // DEALGRID_HTTP_TIMEOUT
	Lenient     bool          // DEALGRID_LENIENT: substitute empty dashboard years on fetch failure
	DatabaseDSN string        // DEALGRID_DATABASE_DSN, postgres backend only
	JWTSecret   string        // DEALGRID_JWT_SECRET, postgres backend only
	AccessTTL   time.Duration // DEALGRID_ACCESS_TTL
	RefreshTTL  time.Duration // DEALGRID_REFRESH_TTL
	TokenDir    string        // DEALGRID_TOKEN_DIR overrides where token files live
}

// Load reads the environment plus an optional .env file and validates
// the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Backend:     getenv("DEALGRID_BACKEND", BackendREST),
		BaseURL:     getenv("DEALGRID_API_URL", DefaultBaseURL),
		DatabaseDSN: os.Getenv("DEALGRID_DATABASE_DSN"),
		JWTSecret:   os.Getenv("DEALGRID_JWT_SECRET"),
		TokenDir:    os.Getenv("DEALGRID_TOKEN_DIR"),
	}

	var err error
	if cfg.HTTPTimeout, err = duration("DEALGRID_HTTP_TIMEOUT", DefaultTimeout); err != nil {
		return Config{}, err
	}
	if cfg.AccessTTL, err = duration("DEALGRID_ACCESS_TTL", DefaultAccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = duration("DEALGRID_REFRESH_TTL", DefaultRefreshTTL); err != nil {
		return Config{}, err
	}
	if cfg.Lenient, err = boolean("DEALGRID_LENIENT", false); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields the selected backend needs.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendREST:
		if c.BaseURL == "" {
			return errors.New("config: api url required for the rest backend")
		}
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			return errors.New("config: DEALGRID_DATABASE_DSN required for the postgres backend")
		}
		if c.JWTSecret == "" {
			return errors.New("config: DEALGRID_JWT_SECRET required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func boolean(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}
