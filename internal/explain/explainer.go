// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package explain

import (
	"context"
	"errors"
	"fmt"
)

// ErrExplainerUnavailable is returned when the text model cannot be reached,
// is rate limited, or returns nothing usable.
var ErrExplainerUnavailable = errors.New("explainer unavailable")

// Explainer renders a Context as farmer-facing text.
type Explainer interface {
	Explain(ctx context.Context, c *Context) (string, error)
}

// Source records where an explanation came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// FallbackReason selects the wording of fallback text.
type FallbackReason int

const (
	// FallbackOffline is used when no model is configured.
	FallbackOffline FallbackReason = iota
	// FallbackFailed is used when the model call failed.
	FallbackFailed
)

// FallbackText builds deterministic text from the top market. It never
// mentions a market outside c.
func FallbackText(c *Context, reason FallbackReason) string {
	best, ok := c.Best()
	if !ok {
		if reason == FallbackOffline {
			return fmt.Sprintf("%s, we could not find price data for %s. "+
				"Try nearby markets, compare buyer offers early, and factor transport cost.", c.FarmerName, c.Crop)
		}
		return fmt.Sprintf("%s, although we have no data, you can check nearby markets, compare prices, "+
			"and choose the location with the highest demand and lowest transport cost.", c.FarmerName)
	}

	price := formatNumber(best.RetailPrice)
	if reason == FallbackOffline {
		return fmt.Sprintf("%s, based on available data, the best market is %s with a price of %s KES.",
			c.FarmerName, best.Market, price)
	}
	return fmt.Sprintf("%s, the recommended market is %s with a price of %s KES. "+
		"Consider distance and transport before deciding.", c.FarmerName, best.Market, price)
}

// FallbackExplainer is the offline Explainer. It never fails.
type FallbackExplainer struct{}

// Explain implements Explainer.
func (FallbackExplainer) Explain(_ context.Context, c *Context) (string, error) {
	return FallbackText(c, FallbackOffline), nil
}
