// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

// Package testinfra provides container-backed infrastructure for integration
// tests, built on testcontainers-go.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/prices/...
//
// # PostgreSQL
//
// PostgresContainer runs a throwaway PostgreSQL for the prices.PostgresSource
// tests:
//
//	func TestPostgresSource(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    testinfra.CleanupContainer(t, pg)
//
//	    db, err := prices.OpenPostgres(ctx, pg.DSN)
//	    // ...
//	}
//
// Tests are skipped when Docker is unavailable. The first run pulls the image.
package testinfra
