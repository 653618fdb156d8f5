// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validatePrices,
		c.validateGeo,
		c.validateRecommend,
		c.validateForecast,
		c.validateExplain,
		c.validateEvents,
		c.validateAudit,
		c.validateSecurity,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging, or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error (got %q)", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.Logging.Format)
	}
	return nil
}

// validatePrices checks the selected source and the cron reload spec.
func (c *Config) validatePrices() error {
	switch c.Prices.Source {
	case PriceSourceCSV:
		if strings.TrimSpace(c.Prices.CSVPath) == "" {
			return fmt.Errorf("PRICES_CSV_PATH is required when PRICES_SOURCE=csv")
		}
	case PriceSourcePostgres:
		if strings.TrimSpace(c.Prices.PostgresDSN) == "" {
			return fmt.Errorf("DATABASE_URL is required when PRICES_SOURCE=postgres")
		}
		if err := validatePostgresDSN(c.Prices.PostgresDSN); err != nil {
			return fmt.Errorf("DATABASE_URL: %w", err)
		}
	default:
		return fmt.Errorf("PRICES_SOURCE must be csv or postgres, got %q", c.Prices.Source)
	}

	if c.Prices.ReloadSchedule != "" {
		if _, err := cron.ParseStandard(c.Prices.ReloadSchedule); err != nil {
			return fmt.Errorf("PRICES_RELOAD_SCHEDULE is not a valid cron spec: %w", err)
		}
	}
	if c.Prices.LoadTimeout <= 0 {
		return fmt.Errorf("PRICES_LOAD_TIMEOUT must be positive, got %v", c.Prices.LoadTimeout)
	}
	return nil
}

func (c *Config) validateGeo() error {
	if strings.TrimSpace(c.Geo.Reference) == "" {
		return fmt.Errorf("GEO_REFERENCE is required")
	}
	if c.Prices.GeocodeMissing {
		if err := validateHTTPURL(c.Geo.OverpassEndpoint, "OVERPASS_ENDPOINT"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if math.IsNaN(r.TransportRatePerKM) || r.TransportRatePerKM < 0 {
		return fmt.Errorf("TRANSPORT_RATE_PER_KM must be non-negative, got %v", r.TransportRatePerKM)
	}
	if r.MaxTopN < 1 {
		return fmt.Errorf("RECOMMEND_MAX_TOP_N must be at least 1, got %d", r.MaxTopN)
	}
	if r.DefaultTopN < 0 || r.DefaultTopN > r.MaxTopN {
		return fmt.Errorf("RECOMMEND_DEFAULT_TOP_N must be between 0 and %d, got %d", r.MaxTopN, r.DefaultTopN)
	}
	if !(r.WindowTopPercent > 0 && r.WindowTopPercent <= 1) {
		return fmt.Errorf("WINDOW_TOP_PERCENT must be in (0, 1], got %v", r.WindowTopPercent)
	}
	if r.ForecastHorizonDays < 1 {
		return fmt.Errorf("FORECAST_HORIZON_DAYS must be at least 1, got %d", r.ForecastHorizonDays)
	}
	return nil
}

func (c *Config) validateForecast() error {
	if c.Forecast.URL == "" {
		return nil
	}
	return validateHTTPURL(c.Forecast.URL, "FORECAST_URL")
}

func (c *Config) validateExplain() error {
	if c.Explain.APIKey == "" {
		return nil
	}
	if err := validateHTTPURL(c.Explain.BaseURL, "EXPLAIN_BASE_URL"); err != nil {
		return err
	}
	if strings.TrimSpace(c.Explain.Model) == "" {
		return fmt.Errorf("EXPLAIN_MODEL is required when an API key is set")
	}
	if c.Explain.RequestsPerMinute < 0 {
		return fmt.Errorf("EXPLAIN_RPM must be non-negative, got %d", c.Explain.RequestsPerMinute)
	}
	if c.Explain.CacheSize < 0 {
		return fmt.Errorf("EXPLAIN_CACHE_SIZE must be non-negative, got %d", c.Explain.CacheSize)
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case EventsBackendMemory:
		return nil
	case EventsBackendNATS:
	default:
		return fmt.Errorf("EVENTS_BACKEND must be memory or nats, got %q", c.Events.Backend)
	}

	if c.Events.Embedded {
		if c.Events.EmbeddedPort < 0 || c.Events.EmbeddedPort > 65535 {
			return fmt.Errorf("NATS_EMBEDDED_PORT must be between 0 and 65535, got %d", c.Events.EmbeddedPort)
		}
		if c.Events.JetStream && c.Events.StoreDir == "" {
			return fmt.Errorf("NATS_STORE_DIR is required when JetStream is enabled")
		}
		return nil
	}
	if err := validateNATSURL(c.Events.URL); err != nil {
		return fmt.Errorf("NATS_URL: %w", err)
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	switch c.Audit.Backend {
	case AuditBackendMemory:
		if c.Audit.MemoryLimit < 1 {
			return fmt.Errorf("AUDIT_MEMORY_LIMIT must be at least 1, got %d", c.Audit.MemoryLimit)
		}
	case AuditBackendDuckDB:
		if strings.TrimSpace(c.Audit.DuckDBPath) == "" {
			return fmt.Errorf("AUDIT_DUCKDB_PATH is required when AUDIT_BACKEND=duckdb")
		}
	default:
		return fmt.Errorf("AUDIT_BACKEND must be memory or duckdb, got %q", c.Audit.Backend)
	}
	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must be non-negative, got %d", c.Audit.RetentionDays)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
		}
	}
	if c.IsProduction() {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * in production")
			}
		}
		if c.Security.AdminToken != "" && len(c.Security.AdminToken) < 32 {
			return fmt.Errorf("ADMIN_TOKEN must be at least 32 characters in production")
		}
	}
	return nil
}
