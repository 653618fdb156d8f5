// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

/*
Package api provides the HTTP interface for AgriMarket using the Chi router.

# Endpoints

	POST /api/v1/advise                     ranked markets plus explanation
	POST /api/v1/recommend                  ranked markets only
	GET  /api/v1/markets/{market}/trend     trend for one market (?crop=)
	POST /api/v1/selling-window             best window for a forecast series
	GET  /api/v1/audit/advice               recent advice audit records
	POST /api/v1/admin/prices/reload        reload the price snapshot (admin token)
	GET  /api/v1/health[/live|/ready]       health probes
	GET  /metrics                           Prometheus exposition

Every JSON response uses the models.APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"timestamp": "...", "request_id": "..."}}

An empty ranking is a successful response with no_data=true, never a 404.

# Middleware Stack

Applied globally, in order: request ID, real IP, panic recovery, CORS,
security headers. API routes add rate limiting (go-chi/httprate) and
Prometheus instrumentation.

# Error Mapping

	recommend.ErrInvalidInput        400 INVALID_INPUT
	validation failures              400 VALIDATION_ERROR
	malformed JSON                   400 BAD_REQUEST
	prices.ErrNoSnapshot             503 SERVICE_UNAVAILABLE
	anything else                    500 INTERNAL_ERROR
*/
package api
