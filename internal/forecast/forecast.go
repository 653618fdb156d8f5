// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

// Package forecast provides predicted price series per market and crop.
// The ranking engine treats forecasts as optional: any error here leaves the
// selling window unset.
package forecast

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// ErrProviderUnavailable is returned when the forecasting backend cannot be
	// reached, times out, or its circuit breaker is open.
	ErrProviderUnavailable = errors.New("forecast provider unavailable")

	// ErrNoForecast is returned when the backend has no model for the pair.
	ErrNoForecast = errors.New("no forecast for market and crop")
)

// Point is one predicted price.
type Point struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Provider returns a predicted price series for the next horizonDays days.
type Provider interface {
	Forecast(ctx context.Context, crop, market string, horizonDays int) ([]Point, error)
}

// Static serves forecasts from memory. It is safe for concurrent use.
type Static struct {
	mu     sync.RWMutex
	series map[string][]Point
}

// NewStatic creates an empty Static provider.
func NewStatic() *Static {
	return &Static{series: make(map[string][]Point)}
}

// Put stores a series for crop and market.
func (s *Static) Put(crop, market string, series []Point) {
	cp := make([]Point, len(series))
	copy(cp, series)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Date.Before(cp[j].Date) })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[staticKey(crop, market)] = cp
}

// Forecast implements Provider. The series is truncated to horizonDays points
// when horizonDays is positive.
func (s *Static) Forecast(ctx context.Context, crop, market string, horizonDays int) ([]Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	series, ok := s.series[staticKey(crop, market)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNoForecast
	}

	if horizonDays > 0 && len(series) > horizonDays {
		series = series[:horizonDays]
	}
	out := make([]Point, len(series))
	copy(out, series)
	return out, nil
}

func staticKey(crop, market string) string {
	norm := func(s string) string { return strings.Join(strings.Fields(strings.ToLower(s)), " ") }
	return norm(crop) + "|" + norm(market)
}
