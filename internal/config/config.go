package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the memenote service.
// Environment variables are parsed from the MEMENOTE_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8000"`

	// Storage: sqlite (default) or postgres
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/memenote.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Notification pipeline tuning
	BusBuffer   int           `envconfig:"BUS_BUFFER" default:"64"`
	SSEPollWait time.Duration `envconfig:"SSE_POLL_WAIT" default:"1s"`
}

// ResolveDefaults validates the driver selection and its prerequisites.
func (c *Config) ResolveDefaults() error {
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("MEMENOTE_SQLITE_PATH must be set for the sqlite driver")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("MEMENOTE_POSTGRES_DSN must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.BusBuffer <= 0 {
		c.BusBuffer = 64
	}
	if c.SSEPollWait <= 0 {
		c.SSEPollWait = time.Second
	}
	return nil
}

// New creates a Config by parsing environment variables.
// Example: MEMENOTE_HTTP_PORT, MEMENOTE_DB_DRIVER.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("MEMENOTE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Int("bus_buffer", cfg.BusBuffer).
		Dur("sse_poll_wait", cfg.SSEPollWait).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment: EnvTesting,
		HTTPPort:    8000,
		DBDriver:    "sqlite",
		SQLitePath:  ":memory:",
		BusBuffer:   8,
		SSEPollWait: 50 * time.Millisecond,
	}
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
