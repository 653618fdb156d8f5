// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package api

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/agrimarket/internal/advice"
	"github.com/tomtom215/agrimarket/internal/audit"
	"github.com/tomtom215/agrimarket/internal/prices"
	"github.com/tomtom215/agrimarket/internal/recommend"
)

// Version is reported by the health endpoint. Overridden at build time.
var Version = "dev"

// SnapshotProvider exposes the current price table.
type SnapshotProvider interface {
	Current() (*prices.Table, error)
	Ready() bool
}

// Reloader reloads the price table on demand.
type Reloader interface {
	Reload(ctx context.Context) (*prices.Table, error)
}

// HandlerDeps carries the collaborators of a Handler. Audit, Reloader and the
// status fields are optional.
type HandlerDeps struct {
	Service   *advice.Service
	Engine    *recommend.Engine
	Snapshots SnapshotProvider
	Reloader  Reloader
	Audit     audit.Store

	// Reported by Health.
	ExplainerOnline bool
	EventsBackend   string

	// ReloadTimeout bounds an admin-triggered reload.
	ReloadTimeout time.Duration
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_advice.go: advise, recommend, market trend, selling window
//   - handlers_audit.go: advice audit log
//   - handlers_admin.go: price snapshot reload
//   - handlers_health.go: health probes
type Handler struct {
	deps      HandlerDeps
	startTime time.Time
}

// NewHandler creates a new API handler.
func NewHandler(deps HandlerDeps) (*Handler, error) {
	if deps.Service == nil || deps.Engine == nil || deps.Snapshots == nil {
		return nil, errors.New("service, engine and snapshots are required")
	}
	if deps.ReloadTimeout <= 0 {
		deps.ReloadTimeout = 2 * time.Minute
	}
	return &Handler{
		deps:      deps,
		startTime: time.Now(),
	}, nil
}
