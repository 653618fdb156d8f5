// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agrimarket/internal/forecast"
	"github.com/tomtom215/agrimarket/internal/geo"
	"github.com/tomtom215/agrimarket/internal/metrics"
	"github.com/tomtom215/agrimarket/internal/prices"
	"github.com/tomtom215/agrimarket/internal/region"
)

// Engine ranks markets. It holds only immutable lookup tables and is safe for
// concurrent use once constructed.
type Engine struct {
	config     *Config
	gazetteer  *geo.Gazetteer
	regions    *region.Index
	transport  *TransportEstimator
	forecaster forecast.Provider
	logger     zerolog.Logger
}

// NewEngine creates an engine. A nil cfg uses DefaultConfig.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, gazetteer *geo.Gazetteer, regions *region.Index, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if gazetteer == nil || regions == nil {
		return nil, errors.New("gazetteer and region index are required")
	}

	transport, err := NewTransportEstimator(cfg.TransportRatePerKM)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:    cfg,
		gazetteer: gazetteer,
		regions:   regions,
		transport: transport,
		logger:    logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// SetForecastProvider enables AttachWindows. Call before serving requests.
func (e *Engine) SetForecastProvider(p forecast.Provider) {
	e.forecaster = p
}

// HasForecastProvider reports whether AttachWindows can do anything.
func (e *Engine) HasForecastProvider() bool {
	return e.forecaster != nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return *e.config
}

// Transport returns the transport estimator.
func (e *Engine) Transport() *TransportEstimator {
	return e.transport
}

// scored is a candidate plus the index used for stable ordering.
type scored struct {
	Candidate
	record prices.Record
}

// Rank returns the top markets for req.Crop from table.
func (e *Engine) Rank(table *prices.Table, req RankRequest) (*RankResult, error) {
	start := time.Now()

	if table == nil {
		return nil, prices.ErrNoSnapshot
	}

	topN := e.config.DefaultTopN
	if req.TopN != nil {
		if *req.TopN < 0 {
			metrics.RecordRank("invalid", 0, time.Since(start))
			return nil, fmt.Errorf("%w: top_n must not be negative, got %d", ErrInvalidInput, *req.TopN)
		}
		topN = *req.TopN
	}
	if topN > e.config.MaxTopN {
		topN = e.config.MaxTopN
	}

	crop := prices.NormalizeCrop(req.Crop)
	result := &RankResult{
		Crop:       crop,
		Location:   e.gazetteer.Resolve(req.Location),
		Candidates: []Candidate{},
	}
	result.Region = e.farmerRegion(req.Location, result.Location)

	rows, skipped := validRows(table, crop)
	result.Skipped = skipped
	result.FilteredRows = len(rows)
	for _, s := range skipped {
		metrics.RecordSkippedRow("invalid_price")
		e.logger.Warn().Str("crop", crop).Str("market", s.Market).Str("reason", s.Reason).Msg("skipped price row")
	}

	defer func() {
		result.Metadata = Metadata{
			Timestamp: time.Now().UTC(),
			LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
			Snapshot:  table.LoadedAt,
		}
	}()

	if len(rows) == 0 {
		result.NoData = true
		metrics.RecordRank("no_data", 0, time.Since(start))
		e.logger.Info().Str("crop", crop).Str("location", req.Location).Msg("no price data for crop")
		return result, nil
	}

	result.MedianPrice = median(rows)

	candidateRows := rows
	if e.config.CollapseByMarket {
		candidateRows = latestPerMarket(rows)
	}

	farmer := result.Location
	list := make([]scored, 0, len(candidateRows))
	for _, r := range candidateRows {
		list = append(list, scored{Candidate: e.score(r, farmer, result.Region, result.MedianPrice), record: r})
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.InRegion != b.InRegion {
			return a.InRegion
		}
		if a.EffectiveProfit != b.EffectiveProfit {
			return a.EffectiveProfit > b.EffectiveProfit
		}
		return a.MedianDiff < b.MedianDiff
	})

	if len(list) > topN {
		list = list[:topN]
	}

	histories := historiesByMarket(rows)
	for _, s := range list {
		c := s.Candidate
		t := AnalyzeTrend(c.Market, histories[marketKey(s.record)])
		c.Trend = t.Trend
		c.TrendMessage = t.Message
		c.Tips = TransportTips(c.DistanceKM, c.TransportCost)
		if c.Precision != PrecisionExact {
			metrics.RecordDegradedCandidate(string(c.Precision))
		}
		result.Candidates = append(result.Candidates, c)
	}

	metrics.RecordRank("ok", len(result.Candidates), time.Since(start))
	e.logger.Debug().
		Str("crop", crop).
		Str("location", req.Location).
		Bool("location_fallback", farmer.Fallback).
		Str("region", result.Region).
		Int("filtered_rows", len(rows)).
		Int("returned", len(result.Candidates)).
		Msg("ranked markets")

	return result, nil
}

// farmerRegion resolves the region from the raw location, then from the
// county of the resolved place. A fallback location has no region.
func (e *Engine) farmerRegion(location string, res geo.Resolution) string {
	if r, ok := e.regions.RegionOf(location); ok {
		return r
	}
	if res.Fallback {
		return ""
	}
	if r, ok := e.regions.RegionOf(res.Place.County); ok {
		return r
	}
	return ""
}

// score computes the per-candidate figures. Missing coordinates degrade the
// candidate; they never drop it.
func (e *Engine) score(r prices.Record, farmer geo.Resolution, farmerRegion string, med float64) Candidate {
	c := Candidate{
		Market:          r.Market,
		County:          r.County,
		RetailPrice:     r.RetailPrice,
		PriceDate:       r.Date,
		EffectiveProfit: r.RetailPrice,
		InRegion:        farmerRegion != "" && e.regions.InRegion(farmerRegion, r.County),
		MedianDiff:      math.Abs(r.RetailPrice - med),
		Precision:       PrecisionUnavailable,
	}

	point, precision, ok := e.marketPoint(r)
	if !ok {
		return c
	}

	dist, err := geo.Distance(farmer.Place.Point, point)
	if err != nil {
		e.logger.Warn().Err(err).Str("market", r.Market).Msg("distance unavailable")
		return c
	}
	cost, err := e.transport.Cost(dist)
	if err != nil {
		e.logger.Warn().Err(err).Str("market", r.Market).Msg("transport cost unavailable")
		return c
	}

	if farmer.Fallback {
		precision = PrecisionApproximate
	}
	c.DistanceKM = &dist
	c.TransportCost = &cost
	c.EffectiveProfit = effectiveProfit(r.RetailPrice, cost)
	c.Precision = precision
	return c
}

// marketPoint finds market coordinates: the record itself, then a gazetteer
// town, then the county centroid.
func (e *Engine) marketPoint(r prices.Record) (geo.Point, Precision, bool) {
	if r.Coords != nil && r.Coords.Validate() == nil {
		return *r.Coords, PrecisionExact, true
	}
	if p, ok := e.gazetteer.Lookup(r.Market); ok {
		if p.Kind == geo.KindTown {
			return p.Point, PrecisionExact, true
		}
		return p.Point, PrecisionApproximate, true
	}
	if p, ok := e.gazetteer.Lookup(r.County); ok {
		return p.Point, PrecisionApproximate, true
	}
	return geo.Point{}, PrecisionUnavailable, false
}

// Trend returns the trend for one market and crop from table.
func (e *Engine) Trend(table *prices.Table, market, crop string) (TrendResult, int, error) {
	if table == nil {
		return TrendResult{}, 0, prices.ErrNoSnapshot
	}
	var history []float64
	var name string
	for _, r := range table.History(market, crop) {
		if !validPrice(r.RetailPrice) {
			continue
		}
		history = append(history, r.RetailPrice)
		name = r.Market
	}
	if name == "" {
		name = market
	}
	return AnalyzeTrend(name, history), len(history), nil
}

// AttachWindows fetches a forecast for every candidate and sets its selling
// window. Forecast failures are logged and leave the window unset. It returns
// the number of candidates that received a window.
func (e *Engine) AttachWindows(ctx context.Context, result *RankResult) int {
	if e.forecaster == nil || result == nil {
		return 0
	}

	attached := 0
	for i := range result.Candidates {
		c := &result.Candidates[i]

		callCtx, cancel := context.WithTimeout(ctx, e.config.ForecastTimeout)
		series, err := e.forecaster.Forecast(callCtx, result.Crop, c.Market, e.config.ForecastHorizonDays)
		cancel()

		if err != nil {
			ev := e.logger.Warn()
			if errors.Is(err, forecast.ErrNoForecast) {
				ev = e.logger.Debug()
			}
			ev.Err(err).Str("market", c.Market).Str("crop", result.Crop).Msg("no selling window")
			continue
		}

		w, err := BestWindow(series, e.config.WindowTopPercent)
		if err != nil {
			e.logger.Warn().Err(err).Str("market", c.Market).Msg("invalid forecast series")
			continue
		}

		start, end, peak := w.Start, w.End, w.PeakPrice
		c.BestSellStart = &start
		c.BestSellEnd = &end
		c.PeakForecastPrice = &peak
		attached++
	}
	return attached
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}

// validRows filters table to crop, skipping rows with unusable prices.
func validRows(table *prices.Table, crop string) ([]prices.Record, []prices.SkippedRow) {
	var rows []prices.Record
	var skipped []prices.SkippedRow
	for _, r := range table.Records {
		if r.Crop != crop {
			continue
		}
		if !validPrice(r.RetailPrice) {
			skipped = append(skipped, prices.SkippedRow{
				Market: r.Market,
				Reason: fmt.Sprintf("unusable retail price %v", r.RetailPrice),
			})
			continue
		}
		rows = append(rows, r)
	}
	return rows, skipped
}

func marketKey(r prices.Record) string {
	return geo.NormalizeName(r.Market) + "|" + geo.NormalizeName(r.County)
}

// latestPerMarket keeps the most recent row per market, in order of each
// market's first appearance. Same-date rows resolve to the later row.
func latestPerMarket(rows []prices.Record) []prices.Record {
	pos := make(map[string]int)
	var out []prices.Record
	for _, r := range rows {
		k := marketKey(r)
		i, ok := pos[k]
		if !ok {
			pos[k] = len(out)
			out = append(out, r)
			continue
		}
		if !r.Date.Before(out[i].Date) {
			out[i] = r
		}
	}
	return out
}

// historiesByMarket returns each market's prices ordered by date, stable.
func historiesByMarket(rows []prices.Record) map[string][]float64 {
	grouped := make(map[string][]prices.Record)
	for _, r := range rows {
		k := marketKey(r)
		grouped[k] = append(grouped[k], r)
	}
	out := make(map[string][]float64, len(grouped))
	for k, recs := range grouped {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
		h := make([]float64, len(recs))
		for i, r := range recs {
			h[i] = r.RetailPrice
		}
		out[k] = h
	}
	return out
}

func median(rows []prices.Record) float64 {
	vals := make([]float64, len(rows))
	for i, r := range rows {
		vals[i] = r.RetailPrice
	}
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
