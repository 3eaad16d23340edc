package config

import (
	"time"
)

// Config represents the complete application configuration, layered as
// built-in defaults, the user config file, environment variables and
// runtime overrides.
type Config struct {
	Server  ServerConfig   `mapstructure:"server" yaml:"server"`
	Store   StoreConfig    `mapstructure:"store" yaml:"store"`
	Catalog CatalogConfig  `mapstructure:"catalog" yaml:"catalog"`
	Client  UpstreamConfig `mapstructure:"client" yaml:"client"`
	Logging LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Health  HealthConfig   `mapstructure:"health" yaml:"health"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// RateLimit is the per-client request rate allowed on /api routes.
	// Zero disables inbound limiting.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver" yaml:"driver"`
	Path      string `mapstructure:"path" yaml:"path"`
	URL       string `mapstructure:"url" yaml:"url"`
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token"`
}

// CatalogConfig selects upstream providers and how results are merged.
type CatalogConfig struct {
	DefaultProvider string         `mapstructure:"default_provider" yaml:"default_provider"`
	BackupProviders []string       `mapstructure:"backup_providers" yaml:"backup_providers"`
	ResultLimit     int            `mapstructure:"result_limit" yaml:"result_limit"`
	Consumet        UpstreamConfig `mapstructure:"consumet" yaml:"consumet"`
	Jikan           UpstreamConfig `mapstructure:"jikan" yaml:"jikan"`
}

// UpstreamConfig configures one cached, rate-gated JSON API.
type UpstreamConfig struct {
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`

	// RateLimit is the number of requests admitted per rolling second.
	RateLimit int `mapstructure:"rate_limit" yaml:"rate_limit"`

	Freshness      time.Duration `mapstructure:"freshness" yaml:"freshness"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxEntries     int           `mapstructure:"max_entries" yaml:"max_entries"`
	DedupeInflight bool          `mapstructure:"dedupe_inflight" yaml:"dedupe_inflight"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED, ENTERPRISE
	Profile string `mapstructure:"profile" yaml:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port" yaml:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}
