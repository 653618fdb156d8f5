// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package recommend

import (
	"errors"
	"time"

	"github.com/tomtom215/agrimarket/internal/geo"
	"github.com/tomtom215/agrimarket/internal/prices"
)

// ErrInvalidInput is returned for caller errors: negative distance or top_n,
// invalid coordinates, or an out-of-range top_percent.
var ErrInvalidInput = errors.New("invalid input")

// Trend classifies the short-term price direction at a market.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
	TrendUnknown Trend = "unknown"
)

// Precision describes how reliable a candidate's distance figures are.
type Precision string

const (
	PrecisionExact       Precision = "exact"
	PrecisionApproximate Precision = "approximate"
	PrecisionUnavailable Precision = "unavailable"
)

// RankRequest asks for the best markets for a crop.
type RankRequest struct {
	// Location is the farmer's town or county.
	Location string `json:"location"`

	// Crop is matched case- and whitespace-insensitively.
	Crop string `json:"crop"`

	// TopN bounds the result. nil means the configured default; 0 yields an
	// empty list; negative values are rejected.
	TopN *int `json:"top_n,omitempty"`
}

// Candidate is one ranked market.
type Candidate struct {
	Market      string    `json:"market"`
	County      string    `json:"county"`
	RetailPrice float64   `json:"retail_price"`
	PriceDate   time.Time `json:"price_date,omitempty"`

	// DistanceKM and TransportCost are nil when coordinates were unavailable.
	DistanceKM    *float64 `json:"distance_km"`
	TransportCost *float64 `json:"transport_cost"`

	EffectiveProfit float64   `json:"effective_profit"`
	InRegion        bool      `json:"in_region"`
	MedianDiff      float64   `json:"median_diff"`
	Precision       Precision `json:"precision"`

	Trend        Trend  `json:"trend"`
	TrendMessage string `json:"trend_message"`

	// Selling window, set by Engine.AttachWindows.
	BestSellStart     *time.Time `json:"best_sell_start,omitempty"`
	BestSellEnd       *time.Time `json:"best_sell_end,omitempty"`
	PeakForecastPrice *float64   `json:"peak_forecast_price,omitempty"`

	Tips []string `json:"tips"`
}

// Metadata describes how a result was produced.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	LatencyMS float64   `json:"latency_ms"`
	Snapshot  time.Time `json:"snapshot_loaded_at"`
}

// RankResult is the output of Engine.Rank.
type RankResult struct {
	Crop     string         `json:"crop"`
	Location geo.Resolution `json:"location"`

	// Region is the farmer's region, empty when unknown.
	Region string `json:"region,omitempty"`

	Candidates []Candidate `json:"candidates"`

	// NoData is true when no valid row matched the crop.
	NoData bool `json:"no_data"`

	// FilteredRows counts valid rows for the crop before collapsing and truncation.
	FilteredRows int     `json:"filtered_rows"`
	MedianPrice  float64 `json:"median_price"`

	Skipped  []prices.SkippedRow `json:"skipped,omitempty"`
	Metadata Metadata            `json:"metadata"`
}

// Top returns the first candidate, or false when the result is empty.
func (r *RankResult) Top() (Candidate, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}
