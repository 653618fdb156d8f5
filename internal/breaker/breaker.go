// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

// Package breaker wraps sony/gobreaker with the settings and metrics shared by
// every outbound dependency: the forecast service, the text-generation model,
// and the OpenStreetMap geocoder.
//
// The breaker uses real time for its interval and timeout. Unit tests drive it
// through Execute and inspect State rather than waiting on the timeout.
package breaker

import (
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/agrimarket/internal/logging"
	"github.com/tomtom215/agrimarket/internal/metrics"
)

// Settings tunes a Breaker. Zero values take the defaults below.
type Settings struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval after which closed-state counts reset.
	Interval time.Duration
	// Timeout before an open breaker goes half-open.
	Timeout time.Duration
	// MinRequests needed before the failure ratio is considered.
	MinRequests uint32
	// FailureRatio at or above which the breaker opens.
	FailureRatio float64
}

// DefaultSettings opens after 60% failures over at least 10 requests and
// probes again after 2 minutes.
func DefaultSettings() Settings {
	return Settings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// Breaker is a named circuit breaker that reports to Prometheus.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[interface{}]
	name string
}

// New creates a breaker with DefaultSettings.
func New(name string) *Breaker {
	return NewWithSettings(name, DefaultSettings())
}

// NewWithSettings creates a breaker. Zero fields in s fall back to DefaultSettings.
func NewWithSettings(name string, s Settings) *Breaker {
	d := DefaultSettings()
	if s.MaxRequests == 0 {
		s.MaxRequests = d.MaxRequests
	}
	if s.Interval <= 0 {
		s.Interval = d.Interval
	}
	if s.Timeout <= 0 {
		s.Timeout = d.Timeout
	}
	if s.MinRequests == 0 {
		s.MinRequests = d.MinRequests
	}
	if s.FailureRatio <= 0 || s.FailureRatio > 1 {
		s.FailureRatio = d.FailureRatio
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	log := logging.WithComponent("breaker")

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				log.Warn().
					Str("name", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			log.Info().Str("name", name).Str("from", fromStr).Str("to", toStr).Msg("state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &Breaker{cb: cb, name: name}
}

// Name returns the breaker name used in metrics.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state as "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return stateToString(b.cb.State())
}

// IsOpen reports whether calls are currently being rejected.
func (b *Breaker) IsOpen() bool {
	return b.cb.State() == gobreaker.StateOpen
}

// Execute runs fn under the breaker. Rejections return an error wrapping
// gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests; see IsRejection.
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)

	if err != nil {
		if IsRejection(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Str("name", b.name).Err(err).Msg("circuit breaker rejected request")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
			counts := b.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// Do is Execute with a typed result.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	return castResult[T](b.Execute(func() (interface{}, error) {
		return fn()
	}))
}

// IsRejection reports whether err came from the breaker rather than the call.
func IsRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
