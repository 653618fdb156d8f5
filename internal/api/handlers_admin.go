// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/agrimarket/internal/logging"
	"github.com/tomtom215/agrimarket/internal/models"
)

// ReloadPrices handles POST /api/v1/admin/prices/reload
//
// The previous snapshot keeps serving if the reload fails.
//
// @Summary Reload the market price snapshot
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=ReloadResponse}
// @Failure 502 {object} models.APIResponse
// @Router /admin/prices/reload [post]
func (h *Handler) ReloadPrices(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.deps.Reloader == nil {
		respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable, "Price reload is not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.deps.ReloadTimeout)
	defer cancel()

	table, err := h.deps.Reloader.Reload(ctx)
	if err != nil {
		respondError(w, r, http.StatusBadGateway, "RELOAD_FAILED", "Price reload failed; previous snapshot kept", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("source", table.Source).
		Int("rows", table.Len()).
		Int("skipped", len(table.Skipped)).
		Msg("price snapshot reloaded via admin API")

	respondJSON(w, r, http.StatusOK, ReloadResponse{
		Source:   table.Source,
		Rows:     table.Len(),
		Skipped:  len(table.Skipped),
		LoadedAt: table.LoadedAt,
	}, start)
}
