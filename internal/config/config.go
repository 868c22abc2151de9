// Package config loads runtime configuration for the reservation engine
// from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the reservation engine and its
// demonstration HTTP server.
type Config struct {
	Server       ServerConfig
	CounterStore CounterStoreConfig
	DurableStore DurableStoreConfig
	Reaper       ReaperConfig
	Events       EventsConfig
	Validation   ValidationConfig
	Log          LogConfig
}

// ServerConfig holds the demonstration HTTP server's settings. The HTTP
// transport itself is not part of the reservation engine; this only
// configures the thin chi-based surface that exercises it.
type ServerConfig struct {
	Port            string `envconfig:"PORT" default:"8080"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT_SECONDS" default:"30"`
}

// CounterStoreConfig configures the Atomic Counter Store connection.
type CounterStoreConfig struct {
	URL string `envconfig:"COUNTER_STORE_URL" default:"localhost:6379"`
}

// DurableStoreConfig configures the Durable Stock Store connection.
type DurableStoreConfig struct {
	DSN string `envconfig:"DURABLE_STORE_DSN" default:"postgres://localhost:5432/reservations?sslmode=disable"`
}

// ReaperConfig configures the periodic expired-hold sweep.
type ReaperConfig struct {
	IntervalMS int `envconfig:"REAPER_INTERVAL_MS" default:"1000"`
	BatchSize  int `envconfig:"REAPER_BATCH" default:"128"`
}

// Interval returns the reaper period as a time.Duration.
func (r ReaperConfig) Interval() time.Duration {
	return time.Duration(r.IntervalMS) * time.Millisecond
}

// EventsConfig configures the optional Event Log.
type EventsConfig struct {
	Enabled    bool   `envconfig:"EVENTS_ENABLED" default:"true"`
	StreamName string `envconfig:"EVENTS_STREAM_NAME" default:"inv:events"`
}

// ValidationConfig configures request validation strictness.
type ValidationConfig struct {
	StrictIDValidation bool `envconfig:"STRICT_ID_VALIDATION" default:"true"`
	DefaultHoldTTLSecs int  `envconfig:"DEFAULT_HOLD_TTL_SECONDS" default:"600"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks that all configuration values are internally
// consistent.
func (c *Config) Validate() error {
	if c.Reaper.IntervalMS <= 0 {
		return fmt.Errorf("REAPER_INTERVAL_MS must be positive, got %d", c.Reaper.IntervalMS)
	}
	if c.Reaper.BatchSize <= 0 {
		return fmt.Errorf("REAPER_BATCH must be positive, got %d", c.Reaper.BatchSize)
	}
	if c.Validation.DefaultHoldTTLSecs <= 0 {
		return fmt.Errorf("DEFAULT_HOLD_TTL_SECONDS must be positive, got %d", c.Validation.DefaultHoldTTLSecs)
	}
	if c.Events.Enabled && c.Events.StreamName == "" {
		return fmt.Errorf("EVENTS_STREAM_NAME must be set when EVENTS_ENABLED is true")
	}
	if c.Server.ShutdownTimeout < 1 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_SECONDS must be at least 1, got %d", c.Server.ShutdownTimeout)
	}
	return nil
}
