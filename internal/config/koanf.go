// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/agrimarket/config.yaml",
	"/etc/agrimarket/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Prices: PricesConfig{
			Source:         PriceSourceCSV,
			CSVPath:        "/data/market_prices.csv",
			PostgresDSN:    "",
			ReloadSchedule: "@every 1h",
			LoadTimeout:    2 * time.Minute,
			GeocodeMissing: false,
		},
		Geo: GeoConfig{
			Reference:        "nairobi",
			OverpassEndpoint: "https://overpass-api.de/api/interpreter",
			OverpassTimeout:  15 * time.Second,
			CachePath:        "/data/geocode",
			CacheTTL:         30 * 24 * time.Hour,
		},
		Recommend: RecommendConfig{
			TransportRatePerKM:  30,
			DefaultTopN:         3,
			MaxTopN:             50,
			CollapseByMarket:    true,
			WindowTopPercent:    0.15,
			ForecastHorizonDays: 30,
			ForecastTimeout:     5 * time.Second,
		},
		Forecast: ForecastConfig{
			URL:     "", // Disabled unless configured
			Timeout: 10 * time.Second,
		},
		Explain: ExplainConfig{
			APIKey:            "", // Offline mode unless configured
			BaseURL:           "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:             "gemini-1.5-flash",
			Timeout:           20 * time.Second,
			RequestsPerMinute: 60,
			MaxTokens:         800,
			CacheSize:         256,
			CacheTTL:          10 * time.Minute,
		},
		Events: EventsConfig{
			Backend:      EventsBackendMemory,
			URL:          "nats://127.0.0.1:4222",
			Embedded:     false,
			EmbeddedPort: 4222,
			JetStream:    false,
			StoreDir:     "/data/nats",
			DurableName:  "agrimarket",
			QueueGroup:   "agrimarket",
		},
		Audit: AuditConfig{
			Enabled:         true,
			Backend:         AuditBackendMemory,
			DuckDBPath:      "/data/audit.duckdb",
			MemoryLimit:     10000,
			RetentionDays:   90,
			CleanupInterval: 6 * time.Hour,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			AdminToken:        "",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// PRICES_CSV_PATH -> prices.csv_path
	// GEMINI_API_KEY -> explain.api_key
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server mappings
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Price snapshot mappings
	"prices_source":          "prices.source",
	"prices_csv_path":        "prices.csv_path",
	"market_prices_csv":      "prices.csv_path",
	"database_url":           "prices.postgres_dsn",
	"prices_postgres_dsn":    "prices.postgres_dsn",
	"prices_reload_schedule": "prices.reload_schedule",
	"prices_load_timeout":    "prices.load_timeout",
	"prices_geocode_missing": "prices.geocode_missing",

	// Geo mappings
	"geo_reference":      "geo.reference",
	"overpass_endpoint":  "geo.overpass_endpoint",
	"overpass_timeout":   "geo.overpass_timeout",
	"geocode_cache_path": "geo.cache_path",
	"geocode_cache_ttl":  "geo.cache_ttl",

	// Ranking mappings
	"transport_rate_per_km":   "recommend.transport_rate_per_km",
	"recommend_default_top_n": "recommend.default_top_n",
	"recommend_max_top_n":     "recommend.max_top_n",
	"recommend_collapse":      "recommend.collapse_by_market",
	"window_top_percent":      "recommend.window_top_percent",
	"forecast_horizon_days":   "recommend.forecast_horizon_days",
	"forecast_call_timeout":   "recommend.forecast_timeout",

	// Forecast service mappings
	"forecast_url":     "forecast.url",
	"forecast_timeout": "forecast.timeout",

	// Explanation model mappings
	"gemini_api_key":     "explain.api_key",
	"explain_api_key":    "explain.api_key",
	"explain_base_url":   "explain.base_url",
	"explain_model":      "explain.model",
	"explain_timeout":    "explain.timeout",
	"explain_rpm":        "explain.requests_per_minute",
	"explain_max_tokens": "explain.max_tokens",
	"explain_cache_size": "explain.cache_size",
	"explain_cache_ttl":  "explain.cache_ttl",

	// Event bus mappings
	"events_backend":     "events.backend",
	"nats_url":           "events.url",
	"nats_embedded":      "events.embedded",
	"nats_embedded_port": "events.embedded_port",
	"nats_jetstream":     "events.jetstream",
	"nats_store_dir":     "events.store_dir",
	"nats_durable_name":  "events.durable_name",
	"nats_queue_group":   "events.queue_group",

	// Audit mappings
	"audit_enabled":          "audit.enabled",
	"audit_backend":          "audit.backend",
	"audit_duckdb_path":      "audit.duckdb_path",
	"audit_memory_limit":     "audit.memory_limit",
	"audit_retention_days":   "audit.retention_days",
	"audit_cleanup_interval": "audit.cleanup_interval",

	// Security mappings
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"admin_token":         "security.admin_token",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - PRICES_CSV_PATH -> prices.csv_path
//   - DATABASE_URL -> prices.postgres_dsn
//   - GEMINI_API_KEY -> explain.api_key
//   - HTTP_PORT -> server.port
//
// Unmapped keys return "" and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage.
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}
