// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package prices

import (
	"context"
	"errors"

	"github.com/tomtom215/agrimarket/internal/geo"
	"github.com/tomtom215/agrimarket/internal/logging"
)

// GeocodeEnricher fills in coordinates for markets that have none in the
// source and are not in the gazetteer. Each distinct (market, county) is
// looked up once per reload. When the geocoder becomes unavailable the pass
// stops and the remaining markets keep no coordinates; the ranking engine
// then falls back to county centroids.
type GeocodeEnricher struct {
	gazetteer *geo.Gazetteer
	geocoder  geo.Geocoder
}

// NewGeocodeEnricher creates an enricher.
func NewGeocodeEnricher(gazetteer *geo.Gazetteer, geocoder geo.Geocoder) *GeocodeEnricher {
	return &GeocodeEnricher{gazetteer: gazetteer, geocoder: geocoder}
}

type marketKey struct {
	market string
	county string
}

// Enrich implements Enricher.
func (e *GeocodeEnricher) Enrich(ctx context.Context, t *Table) *Table {
	log := logging.WithComponent("prices")

	found := make(map[marketKey]*geo.Point)
	unavailable := false

	for _, r := range t.Records {
		if r.Coords != nil {
			continue
		}
		if _, ok := e.gazetteer.Lookup(r.Market); ok {
			continue
		}
		k := marketKey{geo.NormalizeName(r.Market), geo.NormalizeName(r.County)}
		if _, seen := found[k]; seen || unavailable {
			continue
		}

		p, ok, err := e.geocoder.Geocode(ctx, r.Market, r.County)
		switch {
		case errors.Is(err, geo.ErrGeocoderUnavailable) || ctx.Err() != nil:
			log.Warn().Err(err).Str("market", r.Market).Msg("geocoder unavailable, skipping remaining lookups")
			unavailable = true
			continue
		case err != nil:
			log.Warn().Err(err).Str("market", r.Market).Msg("geocode failed")
			found[k] = nil
			continue
		case !ok:
			found[k] = nil
			continue
		}
		pt := p
		found[k] = &pt
	}

	resolved := 0
	for _, p := range found {
		if p != nil {
			resolved++
		}
	}
	if resolved == 0 {
		return t
	}

	out := make([]Record, len(t.Records))
	copy(out, t.Records)
	for i := range out {
		if out[i].Coords != nil {
			continue
		}
		if p := found[marketKey{geo.NormalizeName(out[i].Market), geo.NormalizeName(out[i].County)}]; p != nil {
			pt := *p
			out[i].Coords = &pt
		}
	}

	log.Info().Int("markets", resolved).Msg("geocoded markets missing from gazetteer")

	return &Table{
		Records:  out,
		Skipped:  t.Skipped,
		LoadedAt: t.LoadedAt,
		Source:   t.Source,
	}
}
