// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package recommend

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// TransportEstimator converts distance into a transport cost at a flat rate.
type TransportEstimator struct {
	rate decimal.Decimal
}

// NewTransportEstimator creates an estimator charging ratePerKM per kilometer.
func NewTransportEstimator(ratePerKM float64) (*TransportEstimator, error) {
	if math.IsNaN(ratePerKM) || math.IsInf(ratePerKM, 0) || ratePerKM < 0 {
		return nil, fmt.Errorf("%w: transport rate %v", ErrInvalidInput, ratePerKM)
	}
	return &TransportEstimator{rate: decimal.NewFromFloat(ratePerKM)}, nil
}

// Rate returns the per-kilometer rate.
func (e *TransportEstimator) Rate() float64 {
	return e.rate.InexactFloat64()
}

// Cost returns distanceKM * rate rounded to the nearest whole unit, halves
// away from zero. It is non-decreasing in distance.
func (e *TransportEstimator) Cost(distanceKM float64) (float64, error) {
	if math.IsNaN(distanceKM) || math.IsInf(distanceKM, 0) || distanceKM < 0 {
		return 0, fmt.Errorf("%w: distance %v km", ErrInvalidInput, distanceKM)
	}
	return decimal.NewFromFloat(distanceKM).Mul(e.rate).Round(0).InexactFloat64(), nil
}

// effectiveProfit subtracts cost from price without float drift.
func effectiveProfit(price, cost float64) float64 {
	return decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(cost)).InexactFloat64()
}
