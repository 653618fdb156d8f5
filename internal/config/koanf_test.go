// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Prices.Source != PriceSourceCSV {
		t.Errorf("Prices.Source = %q, want csv", cfg.Prices.Source)
	}
	if cfg.Recommend.TransportRatePerKM != 30 {
		t.Errorf("Recommend.TransportRatePerKM = %v, want 30", cfg.Recommend.TransportRatePerKM)
	}
	if cfg.Recommend.DefaultTopN != 3 {
		t.Errorf("Recommend.DefaultTopN = %d, want 3", cfg.Recommend.DefaultTopN)
	}
	if !cfg.Recommend.CollapseByMarket {
		t.Error("Recommend.CollapseByMarket should be true by default")
	}
	if cfg.Recommend.WindowTopPercent != 0.15 {
		t.Errorf("Recommend.WindowTopPercent = %v, want 0.15", cfg.Recommend.WindowTopPercent)
	}
	if cfg.Recommend.ForecastHorizonDays != 30 {
		t.Errorf("Recommend.ForecastHorizonDays = %d, want 30", cfg.Recommend.ForecastHorizonDays)
	}
	if cfg.Geo.Reference != "nairobi" {
		t.Errorf("Geo.Reference = %q, want nairobi", cfg.Geo.Reference)
	}
	if cfg.Explain.APIKey != "" {
		t.Error("Explain.APIKey should be empty by default (offline mode)")
	}
	if cfg.Events.Backend != EventsBackendMemory {
		t.Errorf("Events.Backend = %q, want memory", cfg.Events.Backend)
	}
	if cfg.Audit.RetentionDays != 90 {
		t.Errorf("Audit.RetentionDays = %d, want 90", cfg.Audit.RetentionDays)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("Security.CORSOrigins = %v, want [*]", cfg.Security.CORSOrigins)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() error = %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"PRICES_CSV_PATH", "prices.csv_path"},
		{"MARKET_PRICES_CSV", "prices.csv_path"},
		{"DATABASE_URL", "prices.postgres_dsn"},
		{"GEMINI_API_KEY", "explain.api_key"},
		{"TRANSPORT_RATE_PER_KM", "recommend.transport_rate_per_km"},
		{"NATS_EMBEDDED", "events.embedded"},
		{"AUDIT_BACKEND", "audit.backend"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"PATH", ""},
		{"HOME", ""},
		{"RANDOM_UNRELATED_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	os.Clearenv()

	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty with no files", got)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty for missing CONFIG_PATH", got)
	}
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	os.Clearenv()

	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRANSPORT_RATE_PER_KM", "45.5")
	t.Setenv("RECOMMEND_COLLAPSE", "false")
	t.Setenv("EXPLAIN_TIMEOUT", "5s")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Recommend.TransportRatePerKM != 45.5 {
		t.Errorf("Recommend.TransportRatePerKM = %v, want 45.5", cfg.Recommend.TransportRatePerKM)
	}
	if cfg.Recommend.CollapseByMarket {
		t.Error("Recommend.CollapseByMarket = true, want false")
	}
	if cfg.Explain.Timeout != 5*time.Second {
		t.Errorf("Explain.Timeout = %v, want 5s", cfg.Explain.Timeout)
	}
	if cfg.Explain.APIKey != "test-key" {
		t.Errorf("Explain.APIKey = %q, want test-key", cfg.Explain.APIKey)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Security.CORSOrigins = %v, want two trimmed origins", cfg.Security.CORSOrigins)
	}

	// Defaults still apply for unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Recommend.MaxTopN != 50 {
		t.Errorf("Recommend.MaxTopN = %d, want 50 (default)", cfg.Recommend.MaxTopN)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	os.Clearenv()

	configContent := `
server:
  port: 7000
prices:
  source: postgres
  postgres_dsn: postgres://agri:secret@db:5432/agri?sslmode=disable
  reload_schedule: "*/15 * * * *"
recommend:
  transport_rate_per_km: 25
  window_top_percent: 0.2
events:
  backend: nats
  embedded: true
  jetstream: true
  store_dir: /tmp/nats
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Prices.Source != PriceSourcePostgres {
		t.Errorf("Prices.Source = %q, want postgres", cfg.Prices.Source)
	}
	if cfg.Prices.ReloadSchedule != "*/15 * * * *" {
		t.Errorf("Prices.ReloadSchedule = %q", cfg.Prices.ReloadSchedule)
	}
	if cfg.Recommend.TransportRatePerKM != 25 {
		t.Errorf("Recommend.TransportRatePerKM = %v, want 25", cfg.Recommend.TransportRatePerKM)
	}
	if !cfg.Events.Embedded || !cfg.Events.JetStream {
		t.Errorf("Events = %+v, want embedded jetstream", cfg.Events)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	os.Clearenv()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7000\nlogging:\n  level: warn\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7100")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want 7100 (env wins)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn (from file)", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		errMsg  string
	}{
		{
			name:    "postgres without DSN",
			envVars: map[string]string{"PRICES_SOURCE": "postgres"},
			errMsg:  "DATABASE_URL is required",
		},
		{
			name:    "unknown price source",
			envVars: map[string]string{"PRICES_SOURCE": "excel"},
			errMsg:  "PRICES_SOURCE must be csv or postgres",
		},
		{
			name:    "bad cron spec",
			envVars: map[string]string{"PRICES_RELOAD_SCHEDULE": "every hour"},
			errMsg:  "PRICES_RELOAD_SCHEDULE",
		},
		{
			name:    "negative transport rate",
			envVars: map[string]string{"TRANSPORT_RATE_PER_KM": "-1"},
			errMsg:  "TRANSPORT_RATE_PER_KM",
		},
		{
			name:    "default top_n above max",
			envVars: map[string]string{"RECOMMEND_DEFAULT_TOP_N": "60"},
			errMsg:  "RECOMMEND_DEFAULT_TOP_N",
		},
		{
			name:    "window top percent out of range",
			envVars: map[string]string{"WINDOW_TOP_PERCENT": "1.5"},
			errMsg:  "WINDOW_TOP_PERCENT",
		},
		{
			name:    "forecast URL without scheme",
			envVars: map[string]string{"FORECAST_URL": "forecast.local:8000"},
			errMsg:  "FORECAST_URL",
		},
		{
			name:    "nats URL with http scheme",
			envVars: map[string]string{"EVENTS_BACKEND": "nats", "NATS_URL": "http://localhost:4222"},
			errMsg:  "NATS_URL",
		},
		{
			name:    "jetstream without store dir",
			envVars: map[string]string{"EVENTS_BACKEND": "nats", "NATS_EMBEDDED": "true", "NATS_JETSTREAM": "true", "NATS_STORE_DIR": ""},
			errMsg:  "NATS_STORE_DIR",
		},
		{
			name:    "unknown audit backend",
			envVars: map[string]string{"AUDIT_BACKEND": "sqlite"},
			errMsg:  "AUDIT_BACKEND",
		},
		{
			name:    "wildcard CORS in production",
			envVars: map[string]string{"ENVIRONMENT": "production"},
			errMsg:  "CORS_ORIGINS",
		},
		{
			name:    "bad log level",
			envVars: map[string]string{"LOG_LEVEL": "verbose"},
			errMsg:  "LOG_LEVEL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			_, err := LoadWithKoanf()
			if err == nil {
				t.Fatalf("LoadWithKoanf() expected error containing %q", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("LoadWithKoanf() error = %v, want containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestValidateNATSURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"nats://localhost:4222", false},
		{"tls://nats.example.com:4222", false},
		{"wss://nats.example.com", false},
		{"http://localhost:4222", true},
		{"nats://", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := validateNATSURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateNATSURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://generativelanguage.googleapis.com/v1beta/openai/", false},
		{"http://localhost:8000", false},
		{"ftp://example.com", true},
		{"https://", true},
		{"https://example.com/?key=1", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := validateHTTPURL(tt.url, "TEST_URL")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateHTTPURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
