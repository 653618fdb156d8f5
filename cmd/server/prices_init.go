// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/agrimarket/internal/config"
	"github.com/tomtom215/agrimarket/internal/geo"
	"github.com/tomtom215/agrimarket/internal/logging"
	"github.com/tomtom215/agrimarket/internal/prices"
	"github.com/tomtom215/agrimarket/internal/region"
	"github.com/tomtom215/agrimarket/internal/supervisor/services"
)

// PriceComponents holds the price snapshot and everything that feeds it.
type PriceComponents struct {
	Holder        *prices.Holder
	ReloadService *services.ReloadService

	db    *sqlx.DB
	cache *geo.BadgerCache
}

// Close releases the database pool and geocode cache.
func (p *PriceComponents) Close() {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing price database")
		}
	}
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing geocode cache")
		}
	}
}

// initGeography builds the gazetteer and region index.
func initGeography(cfg *config.Config) (*geo.Gazetteer, *region.Index, error) {
	gaz, err := geo.NewGazetteer(geo.DefaultPlaces(), cfg.Geo.Reference)
	if err != nil {
		return nil, nil, fmt.Errorf("build gazetteer: %w", err)
	}
	regions, err := region.New(region.DefaultClusters())
	if err != nil {
		return nil, nil, fmt.Errorf("build region index: %w", err)
	}

	logging.Info().
		Int("places", gaz.Len()).
		Str("reference", gaz.Reference().Name).
		Msg("Gazetteer initialized")

	return gaz, regions, nil
}

// initPrices opens the configured price source. The first snapshot is loaded
// by the reload service so a slow source never blocks startup; readiness stays
// red until it lands.
func initPrices(ctx context.Context, cfg *config.Config, gaz *geo.Gazetteer) (*PriceComponents, error) {
	pc := &PriceComponents{}

	var source prices.Source
	switch cfg.Prices.Source {
	case config.PriceSourcePostgres:
		db, err := prices.OpenPostgres(ctx, cfg.Prices.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open price database: %w", err)
		}
		pc.db = db

		pg := prices.NewPostgresSource(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			pc.Close()
			return nil, fmt.Errorf("ensure price schema: %w", err)
		}
		source = pg
		logging.Info().Msg("Price source: PostgreSQL")
	default:
		source = prices.NewCSVSource(cfg.Prices.CSVPath)
		logging.Info().Str("path", cfg.Prices.CSVPath).Msg("Price source: CSV")
	}

	var enricher prices.Enricher
	if cfg.Prices.GeocodeMissing {
		var cache geo.GeocodeCache = geo.NewMemoryCache()
		if cfg.Geo.CachePath != "" {
			bc, err := geo.OpenBadgerCache(cfg.Geo.CachePath, cfg.Geo.CacheTTL)
			if err != nil {
				pc.Close()
				return nil, fmt.Errorf("open geocode cache: %w", err)
			}
			pc.cache = bc
			cache = bc
		}
		geocoder := geo.NewCachedGeocoder(geo.NewOverpassGeocoder(cfg.Geo.OverpassEndpoint, cfg.Geo.OverpassTimeout), cache)
		enricher = prices.NewGeocodeEnricher(gaz, geocoder)
		logging.Info().
			Str("endpoint", cfg.Geo.OverpassEndpoint).
			Str("cache", cfg.Geo.CachePath).
			Msg("Geocoding of unknown markets enabled")
	}

	pc.Holder = prices.NewHolder(source, enricher)

	reloadSvc, err := services.NewReloadService(pc.Holder, services.ReloadServiceConfig{
		Schedule:      cfg.Prices.ReloadSchedule,
		LoadOnStartup: true,
		Timeout:       cfg.Prices.LoadTimeout,
	}, logging.WithComponent("prices"))
	if err != nil {
		pc.Close()
		return nil, err
	}
	pc.ReloadService = reloadSvc

	return pc, nil
}
