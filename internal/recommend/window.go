// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package recommend

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/agrimarket/internal/forecast"
)

// Window is the date envelope of the best forecast prices. Days inside the
// envelope are not necessarily all above the threshold.
type Window struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Threshold float64   `json:"threshold"`
	PeakPrice float64   `json:"peak_price"`
	PeakDate  time.Time `json:"peak_date"`

	// Selected is the number of qualifying days.
	Selected int `json:"selected_days"`
}

// BestWindow picks the selling window from a forecast series.
//
// The threshold is the (1 - topPercent) quantile of the prices, interpolated
// linearly between closest ranks. Days at or above it qualify. When the
// threshold sits on a plateau of equal prices that admits more days than the
// top share allows and strictly higher prices exist, only the strictly higher
// days qualify. If nothing qualifies the single highest day is used.
func BestWindow(series []forecast.Point, topPercent float64) (Window, error) {
	if !(topPercent > 0 && topPercent <= 1) {
		return Window{}, fmt.Errorf("%w: top_percent must be in (0, 1], got %v", ErrInvalidInput, topPercent)
	}
	if len(series) == 0 {
		return Window{}, fmt.Errorf("%w: empty forecast series", ErrInvalidInput)
	}

	sorted := make([]float64, len(series))
	peak := 0
	for i, p := range series {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return Window{}, fmt.Errorf("%w: non-finite forecast price on %s", ErrInvalidInput, p.Date.Format("2006-01-02"))
		}
		sorted[i] = p.Price
		if p.Price > series[peak].Price {
			peak = i
		}
	}
	sort.Float64s(sorted)

	threshold := quantile(sorted, 1-topPercent)
	eps := 1e-9 * math.Max(1, math.Abs(threshold))

	var atOrAbove, above []int
	for i, p := range series {
		if p.Price >= threshold-eps {
			atOrAbove = append(atOrAbove, i)
		}
		if p.Price > threshold+eps {
			above = append(above, i)
		}
	}

	allowance := int(math.Ceil(float64(len(series))*topPercent - 1e-9))
	if allowance < 1 {
		allowance = 1
	}

	selected := atOrAbove
	if len(selected) > allowance && len(above) > 0 {
		selected = above
	}
	if len(selected) == 0 {
		selected = []int{peak}
	}

	w := Window{
		Start:     series[selected[0]].Date,
		End:       series[selected[0]].Date,
		Threshold: threshold,
		PeakPrice: series[peak].Price,
		PeakDate:  series[peak].Date,
		Selected:  len(selected),
	}
	for _, i := range selected[1:] {
		d := series[i].Date
		if d.Before(w.Start) {
			w.Start = d
		}
		if d.After(w.End) {
			w.End = d
		}
	}
	return w, nil
}

// quantile returns the q-quantile of sorted values with linear interpolation.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(sorted) {
		hi = len(sorted) - 1
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
