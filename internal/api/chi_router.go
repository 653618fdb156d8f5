// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/agrimarket/internal/middleware"
	"github.com/tomtom215/agrimarket/internal/models"
)

// Router wires handlers and middleware into a Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	adminToken    string
}

// NewRouter creates a router. mw may be nil for defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware, adminToken string) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: mw,
		adminToken:    adminToken,
	}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(APISecurityHeaders())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, models.ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// Advice Endpoints
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Post("/api/v1/advise", router.handler.Advise)
		r.Post("/api/v1/recommend", router.handler.Recommend)
		r.Get("/api/v1/markets/{market}/trend", router.handler.MarketTrend)
		r.Post("/api/v1/selling-window", router.handler.SellingWindow)
		r.Get("/api/v1/audit/advice", router.handler.AuditAdvice)
	})

	// ========================
	// Admin Endpoints
	// ========================
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAdmin())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(RequireAdminToken(router.adminToken))

		r.Post("/prices/reload", router.handler.ReloadPrices)
	})

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
