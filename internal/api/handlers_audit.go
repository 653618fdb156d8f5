// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/agrimarket/internal/audit"
	"github.com/tomtom215/agrimarket/internal/models"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditAdvice handles GET /api/v1/audit/advice
//
// Query parameters: limit (default 50, max 500), offset, crop, location,
// source (model, cache, fallback).
//
// @Summary Recent advice audit records
// @Tags Audit
// @Produce json
// @Success 200 {object} models.APIResponse{data=AuditListResponse}
// @Router /audit/advice [get]
func (h *Handler) AuditAdvice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.deps.Audit == nil {
		respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable, "Audit log is disabled", nil)
		return
	}

	limit := getIntParam(r, "limit", defaultAuditLimit)
	if limit < 1 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	offset := getIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	q := r.URL.Query()
	filter := audit.QueryFilter{
		Crop:              q.Get("crop"),
		Location:          q.Get("location"),
		ExplanationSource: q.Get("source"),
		Limit:             limit,
		Offset:            offset,
	}

	records, err := h.deps.Audit.Query(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to query audit log", err)
		return
	}
	total, err := h.deps.Audit.Count(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to count audit records", err)
		return
	}
	if records == nil {
		records = []audit.Record{}
	}

	respondJSON(w, r, http.StatusOK, AuditListResponse{
		Records: records,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, start)
}
