// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

// Package metrics holds the Prometheus collectors for AgriMarket and small
// Record* helpers so call sites stay one line.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "agrimarket"

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_active_requests",
			Help:      "Number of in-flight API requests",
		},
	)

	// Ranking Metrics
	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_duration_seconds",
			Help:      "Time spent ranking markets for one request",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	RankRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rank_requests_total",
			Help:      "Ranking requests by outcome",
		},
		[]string{"outcome"}, // ok, no_data, invalid
	)

	RankCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_candidates_returned",
			Help:      "Number of candidates returned per ranking",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	RankSkippedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rank_skipped_rows_total",
			Help:      "Price rows skipped during ranking",
		},
		[]string{"reason"},
	)

	RankDegradedCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rank_degraded_candidates_total",
			Help:      "Returned candidates whose distance was approximate or unavailable",
		},
		[]string{"precision"},
	)

	// Explanation Metrics
	ExplanationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanations_total",
			Help:      "Explanations served by source",
		},
		[]string{"source"}, // model, fallback, cache
	)

	ExplainerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "explainer_duration_seconds",
			Help:      "Latency of calls to the text-generation model",
			Buckets:   []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
	)

	// Forecast Metrics
	ForecastRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_requests_total",
			Help:      "Forecast provider calls by outcome",
		},
		[]string{"outcome"}, // ok, error
	)

	// Geocoding Metrics
	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_lookups_total",
			Help:      "Geocoder lookups by outcome",
		},
		[]string{"outcome"}, // cache_hit, found, not_found, error
	)

	// Price Snapshot Metrics
	PriceSnapshotRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "price_snapshot_rows",
			Help:      "Rows in the current price snapshot",
		},
	)

	PriceSnapshotSkipped = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "price_snapshot_skipped_rows",
			Help:      "Rows rejected while loading the current price snapshot",
		},
	)

	PriceReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_reloads_total",
			Help:      "Price snapshot reloads by outcome",
		},
		[]string{"source", "outcome"},
	)

	PriceSnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "price_snapshot_loaded_timestamp_seconds",
			Help:      "Unix time the current price snapshot was loaded",
		},
	)

	// Events and Audit Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events published by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	AuditRecordsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_records_total",
			Help:      "Advice audit records processed by outcome",
		},
		[]string{"outcome"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_requests_total",
			Help:      "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state_transitions_total",
			Help:      "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_consecutive_failures",
			Help:      "Consecutive failures seen by a circuit breaker",
		},
		[]string{"name"},
	)
)

// RecordAPIRequest records one finished API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRank records a finished ranking.
func RecordRank(outcome string, candidates int, duration time.Duration) {
	RankRequests.WithLabelValues(outcome).Inc()
	RankDuration.Observe(duration.Seconds())
	if outcome != "invalid" {
		RankCandidates.Observe(float64(candidates))
	}
}

// RecordSkippedRow counts one price row dropped during ranking.
func RecordSkippedRow(reason string) {
	RankSkippedRows.WithLabelValues(reason).Inc()
}

// RecordDegradedCandidate counts a returned candidate with reduced precision.
func RecordDegradedCandidate(precision string) {
	RankDegradedCandidates.WithLabelValues(precision).Inc()
}

// RecordExplanation counts an explanation served from source.
func RecordExplanation(source string) {
	ExplanationsTotal.WithLabelValues(source).Inc()
}

// RecordExplainerCall observes model latency.
func RecordExplainerCall(duration time.Duration) {
	ExplainerDuration.Observe(duration.Seconds())
}

// RecordForecast counts a forecast provider call.
func RecordForecast(err error) {
	if err != nil {
		ForecastRequests.WithLabelValues("error").Inc()
		return
	}
	ForecastRequests.WithLabelValues("ok").Inc()
}

// RecordGeocode counts a geocoder lookup outcome.
func RecordGeocode(outcome string) {
	GeocodeLookups.WithLabelValues(outcome).Inc()
}

// RecordPriceReload records a snapshot reload attempt.
func RecordPriceReload(source string, rows, skipped int, err error) {
	if err != nil {
		PriceReloads.WithLabelValues(source, "error").Inc()
		return
	}
	PriceReloads.WithLabelValues(source, "ok").Inc()
	PriceSnapshotRows.Set(float64(rows))
	PriceSnapshotSkipped.Set(float64(skipped))
	PriceSnapshotAge.Set(float64(time.Now().Unix()))
}

// RecordEventPublished counts a publish attempt.
func RecordEventPublished(topic string, err error) {
	if err != nil {
		EventsPublished.WithLabelValues(topic, "error").Inc()
		return
	}
	EventsPublished.WithLabelValues(topic, "ok").Inc()
}

// RecordAuditRecord counts an audit persistence attempt.
func RecordAuditRecord(err error) {
	if err != nil {
		AuditRecordsSaved.WithLabelValues("error").Inc()
		return
	}
	AuditRecordsSaved.WithLabelValues("saved").Inc()
}
