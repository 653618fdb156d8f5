// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package recommend

import "fmt"

// TrendResult is a trend with its farmer-facing message.
type TrendResult struct {
	Trend   Trend  `json:"trend"`
	Message string `json:"message"`
}

// AnalyzeTrend compares the last two prices of a chronologically ordered
// history. Fewer than two points is TrendUnknown.
func AnalyzeTrend(market string, history []float64) TrendResult {
	if len(history) < 2 {
		return TrendResult{
			Trend:   TrendUnknown,
			Message: "No price history available to determine trend.",
		}
	}

	last, prev := history[len(history)-1], history[len(history)-2]
	switch {
	case last > prev:
		return TrendResult{
			Trend:   TrendRising,
			Message: fmt.Sprintf("Prices at %s appear to be rising. Selling early may secure a better price.", market),
		}
	case last < prev:
		return TrendResult{
			Trend:   TrendFalling,
			Message: fmt.Sprintf("Prices at %s have been falling recently. You may need to negotiate strongly or consider alternative markets.", market),
		}
	default:
		return TrendResult{
			Trend:   TrendStable,
			Message: fmt.Sprintf("Prices at %s are stable. Selling anytime today or tomorrow should give similar outcomes.", market),
		}
	}
}
