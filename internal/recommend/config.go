// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package recommend

import (
	"fmt"
	"math"
	"time"
)

// Config contains the ranking engine parameters.
type Config struct {
	// TransportRatePerKM is the transport cost per kilometer in KES.
	TransportRatePerKM float64 `json:"transport_rate_per_km"`

	// DefaultTopN is used when a request does not set TopN.
	DefaultTopN int `json:"default_top_n"`

	// MaxTopN caps TopN. Larger requests are clamped, not rejected.
	MaxTopN int `json:"max_top_n"`

	// CollapseByMarket keeps only the most recent record per market as a
	// candidate. When false every price row competes on its own.
	CollapseByMarket bool `json:"collapse_by_market"`

	// WindowTopPercent is the share of forecast days considered "best" when
	// choosing a selling window. Must be in (0, 1].
	WindowTopPercent float64 `json:"window_top_percent"`

	// ForecastHorizonDays is the forecast length requested per market.
	ForecastHorizonDays int `json:"forecast_horizon_days"`

	// ForecastTimeout bounds each forecast call.
	ForecastTimeout time.Duration `json:"forecast_timeout"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		TransportRatePerKM:  30,
		DefaultTopN:         3,
		MaxTopN:             50,
		CollapseByMarket:    true,
		WindowTopPercent:    0.15,
		ForecastHorizonDays: 30,
		ForecastTimeout:     5 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if math.IsNaN(c.TransportRatePerKM) || math.IsInf(c.TransportRatePerKM, 0) || c.TransportRatePerKM < 0 {
		return fmt.Errorf("transport_rate_per_km must be a non-negative number, got %v", c.TransportRatePerKM)
	}
	if c.DefaultTopN < 1 {
		return fmt.Errorf("default_top_n must be positive, got %d", c.DefaultTopN)
	}
	if c.MaxTopN < c.DefaultTopN {
		return fmt.Errorf("max_top_n must be >= default_top_n, got %d < %d", c.MaxTopN, c.DefaultTopN)
	}
	if !(c.WindowTopPercent > 0 && c.WindowTopPercent <= 1) {
		return fmt.Errorf("window_top_percent must be in (0, 1], got %v", c.WindowTopPercent)
	}
	if c.ForecastHorizonDays < 1 {
		return fmt.Errorf("forecast_horizon_days must be positive, got %d", c.ForecastHorizonDays)
	}
	if c.ForecastTimeout <= 0 {
		return fmt.Errorf("forecast_timeout must be positive, got %v", c.ForecastTimeout)
	}
	return nil
}
