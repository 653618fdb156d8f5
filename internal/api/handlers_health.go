// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/agrimarket/internal/models"
)

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status  string  `json:"status"`
	Version string  `json:"version"`
	Uptime  float64 `json:"uptime_seconds"`

	SnapshotLoaded   bool       `json:"snapshot_loaded"`
	SnapshotSource   string     `json:"snapshot_source,omitempty"`
	SnapshotRows     int        `json:"snapshot_rows"`
	SnapshotSkipped  int        `json:"snapshot_skipped"`
	SnapshotLoadedAt *time.Time `json:"snapshot_loaded_at,omitempty"`

	ExplainerOnline    bool   `json:"explainer_online"`
	ForecastConfigured bool   `json:"forecast_configured"`
	EventsBackend      string `json:"events_backend,omitempty"`
	AuditEnabled       bool   `json:"audit_enabled"`
}

// Health handles GET /api/v1/health
//
// Status is "degraded" until a price snapshot is loaded. Offline explanation
// and missing forecasts are reported but do not degrade the status.
//
// @Summary Get system health status
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse{data=HealthStatus}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	hs := HealthStatus{
		Status:             "healthy",
		Version:            Version,
		Uptime:             time.Since(h.startTime).Seconds(),
		ExplainerOnline:    h.deps.ExplainerOnline,
		ForecastConfigured: h.deps.Engine.HasForecastProvider(),
		EventsBackend:      h.deps.EventsBackend,
		AuditEnabled:       h.deps.Audit != nil,
	}

	if table, err := h.deps.Snapshots.Current(); err == nil {
		loadedAt := table.LoadedAt
		hs.SnapshotLoaded = true
		hs.SnapshotSource = table.Source
		hs.SnapshotRows = table.Len()
		hs.SnapshotSkipped = len(table.Skipped)
		hs.SnapshotLoadedAt = &loadedAt
	} else {
		hs.Status = "degraded"
	}

	respondJSON(w, r, http.StatusOK, hs, time.Time{})
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
//
// @Summary Kubernetes liveness probe
// @Tags Core
// @Success 200 {object} models.APIResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"}, time.Time{})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 once a price snapshot is loaded, 503 before.
//
// @Summary Kubernetes readiness probe
// @Tags Core
// @Success 200 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.deps.Snapshots.Ready() {
		respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable, "Market prices are not loaded yet", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"}, time.Time{})
}
