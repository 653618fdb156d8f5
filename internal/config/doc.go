// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

/*
Package config provides centralized configuration management for AgriMarket.

Configuration is layered with Koanf v2:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: CONFIG_PATH, else config.yaml, config.yml,
    /etc/agrimarket/config.yaml
 3. Environment variables, mapped explicitly by envTransformFunc

Later layers override earlier ones. Unknown environment variables are ignored
so the process environment cannot leak into the configuration.

# Configuration Structure

  - ServerConfig: HTTP listener and timeouts
  - LoggingConfig: zerolog level, format and caller
  - PricesConfig: price snapshot source (csv or postgres) and reload schedule
  - GeoConfig: reference location, Overpass geocoder and its Badger cache
  - RecommendConfig: ranking knobs (transport rate, top_n, selling window)
  - ForecastConfig: optional forecasting service
  - ExplainConfig: OpenAI-compatible explanation model (Gemini by default)
  - EventsConfig: event bus backend (memory, nats or embedded nats)
  - AuditConfig: advice audit log backend and retention
  - SecurityConfig: CORS, rate limiting, admin token

# Example

	export PRICES_CSV_PATH=/data/market_prices.csv
	export GEMINI_API_KEY=...
	export TRANSPORT_RATE_PER_KM=30
	export EVENTS_BACKEND=nats
	export NATS_EMBEDDED=true

# Thread Safety

Config is immutable after Load and safe for concurrent reads.
*/
package config
