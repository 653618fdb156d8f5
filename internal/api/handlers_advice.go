// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/agrimarket/internal/explain"
	"github.com/tomtom215/agrimarket/internal/models"
	"github.com/tomtom215/agrimarket/internal/recommend"
)

// Advise handles POST /api/v1/advise
//
// @Summary Rank markets and explain the best choice
// @Tags Advice
// @Accept json
// @Produce json
// @Param request body AdviseRequest true "Farmer, location and crop"
// @Success 200 {object} models.APIResponse{data=advice.Advice}
// @Failure 400 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /advise [post]
func (h *Handler) Advise(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req AdviseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	sreq, err := req.toServiceRequest()
	if err != nil {
		respondLanguageError(w, r, err)
		return
	}

	out, err := h.deps.Service.Advise(r.Context(), sreq)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, out, start)
}

// Recommend handles POST /api/v1/recommend
//
// @Summary Rank markets for a crop
// @Tags Advice
// @Accept json
// @Produce json
// @Param request body AdviseRequest true "Location and crop"
// @Success 200 {object} models.APIResponse{data=recommend.RankResult}
// @Router /recommend [post]
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req AdviseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	sreq, err := req.toServiceRequest()
	if err != nil {
		respondLanguageError(w, r, err)
		return
	}

	res, err := h.deps.Service.Recommend(r.Context(), sreq)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, res, start)
}

// MarketTrend handles GET /api/v1/markets/{market}/trend?crop=
//
// @Summary Price trend at one market
// @Tags Markets
// @Produce json
// @Param market path string true "Market name"
// @Param crop query string true "Crop"
// @Success 200 {object} models.APIResponse{data=TrendResponse}
// @Router /markets/{market}/trend [get]
func (h *Handler) MarketTrend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	market := strings.TrimSpace(chi.URLParam(r, "market"))
	crop := strings.TrimSpace(r.URL.Query().Get("crop"))
	if market == "" || crop == "" {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "market and crop are required", nil)
		return
	}

	table, err := h.deps.Snapshots.Current()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	tr, points, err := h.deps.Engine.Trend(table, market, crop)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, TrendResponse{
		Market:  market,
		Crop:    crop,
		Trend:   string(tr.Trend),
		Message: tr.Message,
		Points:  points,
	}, start)
}

// SellingWindow handles POST /api/v1/selling-window
//
// @Summary Best selling window for a forecast series
// @Tags Markets
// @Accept json
// @Produce json
// @Param request body SellingWindowRequest true "Forecast series"
// @Success 200 {object} models.APIResponse{data=recommend.Window}
// @Router /selling-window [post]
func (h *Handler) SellingWindow(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req SellingWindowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	series, err := req.points()
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return
	}

	topPercent := h.deps.Engine.Config().WindowTopPercent
	if req.TopPercent != nil {
		topPercent = *req.TopPercent
	}

	win, err := recommend.BestWindow(series, topPercent)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, win, start)
}

func respondLanguageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, explain.ErrUnsupportedLanguage) {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return
	}
	respondServiceError(w, r, err)
}
