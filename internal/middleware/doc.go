// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

/*
Package middleware provides HTTP middleware components for the API.

Key Components:

  - Request ID: UUID-based request tracking. The ID is echoed in the
    X-Request-ID header and stored in the context for logging.Ctx.
  - Prometheus Metrics: request count, latency and in-flight gauge, labelled
    by the chi route pattern so path parameters do not explode cardinality.

Both are plain http.HandlerFunc wrappers and are adapted to chi by the api
package:

	r.Use(api.ChiMiddleware(middleware.RequestID))
	r.Use(api.ChiMiddleware(middleware.PrometheusMetrics))

Handlers read the ID through GetRequestID or logging.RequestIDFromContext:

	log := logging.Ctx(r.Context())
	log.Info().Msg("ranking markets") // carries request_id and correlation_id
*/
package middleware
