// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package breaker

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/agrimarket/internal/metrics"
)

var errSimulated = errors.New("simulated upstream failure")

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b := New("test-opens")

	if b.State() != "closed" {
		t.Fatalf("initial state = %s, want closed", b.State())
	}

	// 7 failures then 3 successes: 10 requests, 70% failures.
	for i := 0; i < 10; i++ {
		fail := i < 7
		_, _ = b.Execute(func() (interface{}, error) {
			if fail {
				return nil, errSimulated
			}
			return "ok", nil
		})
	}

	// The next failure is evaluated with 11 requests and trips the breaker.
	_, _ = b.Execute(func() (interface{}, error) {
		return nil, errSimulated
	})

	if !b.IsOpen() {
		t.Fatalf("state = %s, want open", b.State())
	}

	_, err := b.Execute(func() (interface{}, error) {
		t.Error("function must not run while open")
		return nil, nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if !IsRejection(err) {
		t.Error("IsRejection should be true for open state")
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-opens")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-opens", "rejected")); got != 1 {
		t.Errorf("rejected counter = %v, want 1", got)
	}
}

func TestBreaker_StaysClosedBelowMinimum(t *testing.T) {
	b := New("test-minimum")

	for i := 0; i < 9; i++ {
		_, _ = b.Execute(func() (interface{}, error) {
			return nil, errSimulated
		})
	}

	if b.IsOpen() {
		t.Error("breaker should stay closed with fewer than 10 requests")
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerConsecutiveFailures.WithLabelValues("test-minimum")); got != 9 {
		t.Errorf("consecutive failures gauge = %v, want 9", got)
	}
}

func TestDo_TypedResult(t *testing.T) {
	b := New("test-typed")

	got, err := Do(b, func() ([]float64, error) {
		return []float64{1.5, 2.5}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1] != 2.5 {
		t.Errorf("unexpected result %v", got)
	}

	_, err = Do(b, func() (string, error) {
		return "", errSimulated
	})
	if !errors.Is(err, errSimulated) {
		t.Errorf("expected wrapped upstream error, got %v", err)
	}
	if IsRejection(err) {
		t.Error("an upstream error is not a rejection")
	}
}

func TestCastResult_TypeMismatch(t *testing.T) {
	if _, err := castResult[int]("not an int", nil); err == nil {
		t.Error("expected type mismatch error")
	}
	v, err := castResult[*int](nil, nil)
	if err != nil || v != nil {
		t.Errorf("nil result should yield zero value, got %v %v", v, err)
	}
}

func TestNewWithSettings_Defaults(t *testing.T) {
	b := NewWithSettings("test-settings", Settings{MinRequests: 2, FailureRatio: 0.5})

	for i := 0; i < 2; i++ {
		_, _ = b.Execute(func() (interface{}, error) {
			return nil, errSimulated
		})
	}
	if !b.IsOpen() {
		t.Errorf("breaker with MinRequests=2 should open after 2 failures, state=%s", b.State())
	}
	if b.Name() != "test-settings" {
		t.Errorf("Name() = %q", b.Name())
	}
}

func TestStateHelpers(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		str   string
		val   float64
	}{
		{gobreaker.StateClosed, "closed", 0},
		{gobreaker.StateHalfOpen, "half-open", 1},
		{gobreaker.StateOpen, "open", 2},
	}
	for _, tt := range tests {
		if got := stateToString(tt.state); got != tt.str {
			t.Errorf("stateToString(%v) = %q, want %q", tt.state, got, tt.str)
		}
		if got := stateToFloat(tt.state); got != tt.val {
			t.Errorf("stateToFloat(%v) = %v, want %v", tt.state, got, tt.val)
		}
	}
}
