// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package config

import "time"

// Price source kinds.
const (
	PriceSourceCSV      = "csv"
	PriceSourcePostgres = "postgres"
)

// Event bus backends.
const (
	EventsBackendMemory = "memory"
	EventsBackendNATS   = "nats"
)

// Audit store backends.
const (
	AuditBackendMemory = "memory"
	AuditBackendDuckDB = "duckdb"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// The Load() function validates all sections and returns an error if a value
// is missing or malformed.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Prices    PricesConfig    `koanf:"prices"`
	Geo       GeoConfig       `koanf:"geo"`
	Recommend RecommendConfig `koanf:"recommend"`
	Forecast  ForecastConfig  `koanf:"forecast"`
	Explain   ExplainConfig   `koanf:"explain"`
	Events    EventsConfig    `koanf:"events"`
	Audit     AuditConfig     `koanf:"audit"`
	Security  SecurityConfig  `koanf:"security"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// LoggingConfig holds zerolog settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// PricesConfig selects where market price snapshots come from.
//
// Environment Variables:
//   - PRICES_SOURCE: csv or postgres (default: csv)
//   - PRICES_CSV_PATH: path to the market price CSV
//   - DATABASE_URL: PostgreSQL DSN for the postgres source
//   - PRICES_RELOAD_SCHEDULE: cron spec for periodic reloads, empty disables
//   - PRICES_GEOCODE_MISSING: resolve markets without coordinates via Overpass
type PricesConfig struct {
	Source         string        `koanf:"source"`
	CSVPath        string        `koanf:"csv_path"`
	PostgresDSN    string        `koanf:"postgres_dsn"`
	ReloadSchedule string        `koanf:"reload_schedule"`
	LoadTimeout    time.Duration `koanf:"load_timeout"`
	GeocodeMissing bool          `koanf:"geocode_missing"`
}

// GeoConfig holds location settings.
type GeoConfig struct {
	// Reference is the gazetteer place used when a farmer location is unknown.
	Reference string `koanf:"reference"`

	OverpassEndpoint string        `koanf:"overpass_endpoint"`
	OverpassTimeout  time.Duration `koanf:"overpass_timeout"`

	// CachePath is the Badger directory for geocode results. Empty keeps the
	// cache in memory.
	CachePath string        `koanf:"cache_path"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

// RecommendConfig holds ranking settings.
type RecommendConfig struct {
	TransportRatePerKM  float64       `koanf:"transport_rate_per_km"`
	DefaultTopN         int           `koanf:"default_top_n"`
	MaxTopN             int           `koanf:"max_top_n"`
	CollapseByMarket    bool          `koanf:"collapse_by_market"`
	WindowTopPercent    float64       `koanf:"window_top_percent"`
	ForecastHorizonDays int           `koanf:"forecast_horizon_days"`
	ForecastTimeout     time.Duration `koanf:"forecast_timeout"`
}

// ForecastConfig configures the forecasting service client. An empty URL
// disables selling windows.
type ForecastConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// ExplainConfig configures the explanation model. An empty APIKey runs the
// advisor offline with deterministic text.
type ExplainConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	Model             string        `koanf:"model"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerMinute int           `koanf:"requests_per_minute"`
	MaxTokens         int           `koanf:"max_tokens"`
	CacheSize         int           `koanf:"cache_size"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
}

// EventsConfig selects the event bus.
//
// With Backend "nats" and Embedded true an in-process NATS server is started
// and URL is ignored.
type EventsConfig struct {
	Backend      string `koanf:"backend"`
	URL          string `koanf:"url"`
	Embedded     bool   `koanf:"embedded"`
	EmbeddedPort int    `koanf:"embedded_port"`
	JetStream    bool   `koanf:"jetstream"`
	StoreDir     string `koanf:"store_dir"`
	DurableName  string `koanf:"durable_name"`
	QueueGroup   string `koanf:"queue_group"`
}

// AuditConfig configures the advice audit log.
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Backend         string        `koanf:"backend"`
	DuckDBPath      string        `koanf:"duckdb_path"`
	MemoryLimit     int           `koanf:"memory_limit"`
	RetentionDays   int           `koanf:"retention_days"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	// AdminToken guards the admin endpoints. Empty disables them.
	AdminToken string `koanf:"admin_token"`
}

// Load reads configuration with the following precedence (highest first):
//  1. Environment variables
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Built-in defaults
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
