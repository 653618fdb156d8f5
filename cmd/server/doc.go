// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

/*
Package main is the entry point for the AgriMarket server.

AgriMarket tells a farmer where to sell a crop. It ranks markets by price net
of transport cost, flags markets in the farmer's region, classifies price
trends, optionally picks a selling window from a price forecast, and explains
the result in plain language.

# Application Architecture

	RootSupervisor ("agrimarket")
	├── DataSupervisor ("data-layer")
	│   └── ReloadService            price snapshot refresh (PRICES_RELOAD_SCHEDULE)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── EmbeddedNATSService      NATS_EMBEDDED=true
	│   └── audit.Consumer           AUDIT_ENABLED=true
	└── APISupervisor ("api-layer")
	    └── HTTPServerService        Chi router

Initialization order:

 1. .env file (godotenv, optional) and configuration (Koanf v2)
 2. Logging (zerolog)
 3. Gazetteer and region clusters
 4. Price source (CSV or PostgreSQL) and snapshot holder, with optional
    Overpass geocoding of unknown markets cached in BadgerDB
 5. Ranking engine, forecast client and explanation advisor
 6. Event bus (in-memory, NATS, or embedded NATS) and audit store
 7. HTTP API and supervisor tree

# Configuration

Layered with Koanf: built-in defaults, then config.yaml, then environment
variables. The most common variables:

	MARKET_PRICES_CSV=/data/market_prices.csv
	DATABASE_URL=postgres://...            (with PRICES_SOURCE=postgres)
	GEMINI_API_KEY=...                     enables model explanations
	FORECAST_URL=http://forecast:8000      enables selling windows
	EVENTS_BACKEND=nats NATS_EMBEDDED=true
	AUDIT_BACKEND=duckdb AUDIT_DUCKDB_PATH=/data/audit.duckdb
	ADMIN_TOKEN=...                        enables POST /api/v1/admin/prices/reload

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
SHUTDOWN_TIMEOUT, the audit consumer finishes its current write, and
the event bus and stores are closed.
*/
package main
