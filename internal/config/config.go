// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
// No credential is ever a literal in source; the database DSN and the admin
// key come from the environment or a secret store.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// SessionTTL is the session lifetime (e.g. "24h").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// AdminAPIKey is the elevated key for administrative and reconciliation
	// calls. Empty disables key-based admin access; role=admin sessions still work.
	AdminAPIKey string `mapstructure:"ADMIN_API_KEY"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// ReconcileInterval is how often cmd/reconcile repairs missing profiles
	// (e.g. "10m"). Zero or unset means run once and exit.
	ReconcileInterval string `mapstructure:"RECONCILE_INTERVAL"`
	// LoginRatePerMin is the per-client login attempt rate (requests/minute).
	LoginRatePerMin int `mapstructure:"LOGIN_RATE_PER_MIN"`
	// LoginBurst is the per-client login burst size.
	LoginBurst int `mapstructure:"LOGIN_BURST"`
	// RequestTimeout is the per-request deadline for store lookups (e.g. "10s").
	// A lookup that misses the deadline is treated as a denial, never an allow.
	RequestTimeout string `mapstructure:"REQUEST_TIMEOUT"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored (e.g. in CI). Env vars
// override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("ADMIN_API_KEY", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("RECONCILE_INTERVAL", "")
	v.SetDefault("LOGIN_RATE_PER_MIN", 10)
	v.SetDefault("LOGIN_BURST", 5)
	v.SetDefault("REQUEST_TIMEOUT", "10s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.LoginRatePerMin <= 0 {
		return nil, errors.New("config: LOGIN_RATE_PER_MIN must be positive")
	}
	if cfg.LoginBurst <= 0 {
		return nil, errors.New("config: LOGIN_BURST must be positive")
	}

	if d, err := time.ParseDuration(cfg.SessionTTL); err != nil || d <= 0 {
		return nil, errors.New("config: SESSION_TTL must be a positive duration")
	}
	if d, err := time.ParseDuration(cfg.RequestTimeout); err != nil || d <= 0 {
		return nil, errors.New("config: REQUEST_TIMEOUT must be a positive duration")
	}
	if cfg.ReconcileInterval != "" {
		if d, err := time.ParseDuration(cfg.ReconcileInterval); err != nil || d < 0 {
			return nil, errors.New("config: RECONCILE_INTERVAL must be a valid duration")
		}
	}

	return &cfg, nil
}

// SessionTTLDuration parses SessionTTL as a time.Duration. Load rejects
// malformed values; 24h covers a zero-value Config.
func (c *Config) SessionTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// ReconcileIntervalDuration parses ReconcileInterval. Returns 0 (run once)
// when unset; Load rejects malformed values.
func (c *Config) ReconcileIntervalDuration() time.Duration {
	if c.ReconcileInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.ReconcileInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// RequestTimeoutDuration parses RequestTimeout. Load rejects malformed
// values; 10s covers a zero-value Config.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
