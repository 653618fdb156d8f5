// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package recommend

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/agrimarket/internal/forecast"
)

func TestTransportEstimator_Cost(t *testing.T) {
	t.Parallel()

	est, err := NewTransportEstimator(30)
	if err != nil {
		t.Fatalf("NewTransportEstimator: %v", err)
	}

	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{"zero", 0, 0},
		{"whole km", 10, 300},
		{"fraction", 0.5, 15},
		{"half rounds up", 1.25, 38},
		{"long trip", 152.3, 4569},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := est.Cost(tt.distance)
			if err != nil {
				t.Fatalf("Cost(%v): %v", tt.distance, err)
			}
			if got != tt.want {
				t.Errorf("Cost(%v) = %v, want %v", tt.distance, got, tt.want)
			}
		})
	}
}

func TestTransportEstimator_Invalid(t *testing.T) {
	t.Parallel()

	est, _ := NewTransportEstimator(30)
	for _, d := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := est.Cost(d); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Cost(%v) error = %v, want ErrInvalidInput", d, err)
		}
	}
	if _, err := NewTransportEstimator(-5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative rate error = %v, want ErrInvalidInput", err)
	}
}

func TestTransportEstimator_Monotonic(t *testing.T) {
	t.Parallel()

	est, _ := NewTransportEstimator(27.5)
	prev := -1.0
	for d := 0.0; d < 500; d += 0.37 {
		c, err := est.Cost(d)
		if err != nil {
			t.Fatalf("Cost(%v): %v", d, err)
		}
		if c < prev {
			t.Fatalf("cost decreased at %v km: %v < %v", d, c, prev)
		}
		prev = c
	}
	if est.Rate() != 27.5 {
		t.Errorf("Rate() = %v", est.Rate())
	}
}

func TestAnalyzeTrend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		history []float64
		want    Trend
		message string
	}{
		{"empty", nil, TrendUnknown, "No price history available to determine trend."},
		{"single", []float64{50}, TrendUnknown, "No price history available to determine trend."},
		{"rising", []float64{60, 40, 45}, TrendRising, "Prices at Mbale appear to be rising. Selling early may secure a better price."},
		{"falling", []float64{40, 50, 48}, TrendFalling, "Prices at Mbale have been falling recently. You may need to negotiate strongly or consider alternative markets."},
		{"stable", []float64{50, 50}, TrendStable, "Prices at Mbale are stable. Selling anytime today or tomorrow should give similar outcomes."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeTrend("Mbale", tt.history)
			if got.Trend != tt.want {
				t.Errorf("trend = %q, want %q", got.Trend, tt.want)
			}
			if got.Message != tt.message {
				t.Errorf("message = %q, want %q", got.Message, tt.message)
			}
		})
	}
}

func series(start time.Time, prices ...float64) []forecast.Point {
	out := make([]forecast.Point, len(prices))
	for i, p := range prices {
		out[i] = forecast.Point{Date: start.AddDate(0, 0, i), Price: p}
	}
	return out
}

func TestBestWindow_Spike(t *testing.T) {
	t.Parallel()

	day0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100
	}
	prices[14] = 200

	w, err := BestWindow(series(day0, prices...), 0.15)
	if err != nil {
		t.Fatalf("BestWindow: %v", err)
	}
	spike := day0.AddDate(0, 0, 14)
	if !w.Start.Equal(spike) || !w.End.Equal(spike) {
		t.Errorf("window = %s..%s, want %s", w.Start, w.End, spike)
	}
	if w.PeakPrice != 200 || !w.PeakDate.Equal(spike) {
		t.Errorf("peak = %v on %s", w.PeakPrice, w.PeakDate)
	}
	if w.Selected != 1 {
		t.Errorf("selected = %d, want 1", w.Selected)
	}
}

func TestBestWindow_Rising(t *testing.T) {
	t.Parallel()

	day0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = float64(i + 1)
	}

	w, err := BestWindow(series(day0, prices...), 0.15)
	if err != nil {
		t.Fatalf("BestWindow: %v", err)
	}
	if want := day0.AddDate(0, 0, 25); !w.Start.Equal(want) {
		t.Errorf("start = %s, want %s", w.Start, want)
	}
	if want := day0.AddDate(0, 0, 29); !w.End.Equal(want) {
		t.Errorf("end = %s, want %s", w.End, want)
	}
	if w.Selected != 5 {
		t.Errorf("selected = %d, want 5", w.Selected)
	}
	if math.Abs(w.Threshold-25.65) > 1e-9 {
		t.Errorf("threshold = %v, want 25.65", w.Threshold)
	}
}

func TestBestWindow_FlatAndSingle(t *testing.T) {
	t.Parallel()

	day0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	w, err := BestWindow(series(day0, 80, 80, 80, 80), 0.15)
	if err != nil {
		t.Fatalf("flat: %v", err)
	}
	if !w.Start.Equal(day0) || !w.End.Equal(day0.AddDate(0, 0, 3)) {
		t.Errorf("flat window = %s..%s", w.Start, w.End)
	}

	w, err = BestWindow(series(day0, 42), 0.15)
	if err != nil {
		t.Fatalf("single: %v", err)
	}
	if !w.Start.Equal(day0) || !w.End.Equal(day0) || w.PeakPrice != 42 {
		t.Errorf("single window = %+v", w)
	}
}

func TestBestWindow_Unsorted(t *testing.T) {
	t.Parallel()

	day0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	pts := []forecast.Point{
		{Date: day0.AddDate(0, 0, 3), Price: 10},
		{Date: day0.AddDate(0, 0, 1), Price: 90},
		{Date: day0, Price: 95},
		{Date: day0.AddDate(0, 0, 2), Price: 20},
	}
	w, err := BestWindow(pts, 0.5)
	if err != nil {
		t.Fatalf("BestWindow: %v", err)
	}
	if !w.Start.Equal(day0) || !w.End.Equal(day0.AddDate(0, 0, 1)) {
		t.Errorf("window = %s..%s", w.Start, w.End)
	}
}

func TestBestWindow_Errors(t *testing.T) {
	t.Parallel()

	day0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		series []forecast.Point
		top    float64
	}{
		{"empty", nil, 0.15},
		{"zero share", series(day0, 1, 2), 0},
		{"share above one", series(day0, 1, 2), 1.5},
		{"nan share", series(day0, 1, 2), math.NaN()},
		{"nan price", series(day0, 1, math.NaN()), 0.15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BestWindow(tt.series, tt.top); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestTransportTips(t *testing.T) {
	t.Parallel()

	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		distance *float64
		cost     *float64
		want     []string
	}{
		{"no distance", nil, nil, []string{TipAskTransporters, TipComparePrices, TipNearestMainMarket}},
		{"short cheap", f(3), f(90), []string{TipShortDistance, TipEvaluateCost, TipBulk}},
		{"band edge short", f(5), f(150), []string{TipShortDistance, TipEvaluateCost, TipBulk}},
		{"medium", f(20), f(600), []string{TipMediumDistance, TipEvaluateCost, TipBulk}},
		{"long expensive", f(120), f(3600), []string{TipLongDistance, TipHighCost, TipBulk}},
		{"distance without cost", f(40), nil, []string{TipLongDistance, TipBulk}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TransportTips(tt.distance, tt.cost)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TransportTips = %q, want %q", got, tt.want)
			}
			if len(got) > 3 {
				t.Errorf("more than three tips: %d", len(got))
			}
		})
	}
}
