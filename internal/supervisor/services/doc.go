// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

/*
Package services provides suture.Service wrappers for AgriMarket components.

Each wrapper adapts a component's lifecycle to suture's context-aware
Serve(ctx) error and implements fmt.Stringer so the supervisor can name it
in logs.

# Available Services

HTTPServerService wraps *http.Server. ListenAndServe runs in a goroutine
and context cancellation triggers a graceful Shutdown.

ReloadService refreshes the price snapshot on a robfig/cron schedule
(PRICES_RELOAD_SCHEDULE). It optionally loads once on startup so the
readiness probe turns green without waiting for the first tick. Failed
reloads are logged; the previous snapshot stays published.

EmbeddedNATSService shuts down an in-process NATS server (NATS_EMBEDDED)
with the rest of the tree and reports the server dying.

The audit consumer (audit.Consumer) already implements suture.Service and is
added to the messaging layer directly.
*/
package services
