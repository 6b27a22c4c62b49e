// Package config loads runtime configuration from environment variables.
package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
//
// JWT_SECRET has no default on purpose: a signing secret must be provided
// explicitly or the process refuses to start. Everything else has a sensible
// development default.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	Port            int           `envconfig:"PORT" default:"8080"`
	AppReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`

	DBPath string `envconfig:"DB_PATH" default:"data/lms.db"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	// TokenTTL bounds every issued token. Historically this codebase issued
	// 1h tokens from one path and 7d from another; there is now a single
	// issuing path and a single TTL.
	TokenTTL time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
