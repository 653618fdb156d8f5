// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/serjvanilla/go-overpass"

	"github.com/tomtom215/agrimarket/internal/breaker"
	"github.com/tomtom215/agrimarket/internal/logging"
	"github.com/tomtom215/agrimarket/internal/metrics"
)

// ErrGeocoderUnavailable is returned when the geocoding backend cannot be reached
// or its circuit breaker is open.
var ErrGeocoderUnavailable = errors.New("geocoder unavailable")

// Geocoder looks up coordinates for a market name. county narrows the search
// when non-empty. found is false when the backend answered but knows no match.
type Geocoder interface {
	Geocode(ctx context.Context, name, county string) (p Point, found bool, err error)
}

// DefaultOverpassEndpoint is the public Overpass API interpreter.
const DefaultOverpassEndpoint = "https://overpass-api.de/api/interpreter"

// OverpassGeocoder resolves market names against OpenStreetMap through the
// Overpass API, restricted to Kenya.
type OverpassGeocoder struct {
	client  overpass.Client
	breaker *breaker.Breaker
	timeout time.Duration
}

// NewOverpassGeocoder creates a geocoder. An empty endpoint uses DefaultOverpassEndpoint.
func NewOverpassGeocoder(endpoint string, timeout time.Duration) *OverpassGeocoder {
	if endpoint == "" {
		endpoint = DefaultOverpassEndpoint
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	return &OverpassGeocoder{
		client:  overpass.NewWithSettings(endpoint, 2, httpClient),
		breaker: breaker.New("overpass-geocoder"),
		timeout: timeout,
	}
}

// Geocode queries Overpass for a marketplace or settlement named name.
// Marketplaces are preferred over settlements; ties go to the lowest OSM id.
func (g *OverpassGeocoder) Geocode(ctx context.Context, name, county string) (Point, bool, error) {
	name = NormalizeName(name)
	if name == "" {
		return Point{}, false, nil
	}
	query := buildOverpassQuery(name, g.timeout)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	nodes, err := breaker.Do(g.breaker, func() ([]*overpass.Node, error) {
		return g.query(ctx, query)
	})
	if err != nil {
		if breaker.IsRejection(err) || errors.Is(err, context.DeadlineExceeded) {
			return Point{}, false, fmt.Errorf("%w: %v", ErrGeocoderUnavailable, err)
		}
		return Point{}, false, fmt.Errorf("%w: overpass query failed: %v", ErrGeocoderUnavailable, err)
	}

	p, ok := pickNode(nodes, county)
	if !ok {
		return Point{}, false, nil
	}
	return p, true, nil
}

// query runs the blocking Overpass call and gives up when ctx ends.
func (g *OverpassGeocoder) query(ctx context.Context, q string) ([]*overpass.Node, error) {
	type outcome struct {
		res overpass.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := g.client.Query(q)
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		nodes := make([]*overpass.Node, 0, len(o.res.Nodes))
		for _, n := range o.res.Nodes {
			nodes = append(nodes, n)
		}
		return nodes, nil
	}
}

func buildOverpassQuery(name string, timeout time.Duration) string {
	pattern := strings.ReplaceAll(regexp.QuoteMeta(name), `"`, `\"`)
	return fmt.Sprintf(`[out:json][timeout:%d];
area["ISO3166-1"="KE"][admin_level=2]->.ke;
(
  node["amenity"="marketplace"]["name"~"^%s$",i](area.ke);
  node["place"~"^(city|town|village|suburb)$"]["name"~"^%s$",i](area.ke);
);
out body;`, int(timeout.Seconds()), pattern, pattern)
}

// pickNode chooses one node deterministically. When county is set, nodes tagged
// with a different county are dropped unless none match.
func pickNode(nodes []*overpass.Node, county string) (Point, bool) {
	if len(nodes) == 0 {
		return Point{}, false
	}
	county = NormalizeName(county)

	candidates := nodes
	if county != "" {
		var inCounty []*overpass.Node
		for _, n := range nodes {
			if NormalizeName(n.Tags["addr:county"]) == county || NormalizeName(n.Tags["is_in:county"]) == county {
				inCounty = append(inCounty, n)
			}
		}
		if len(inCounty) > 0 {
			candidates = inCounty
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		mi := candidates[i].Tags["amenity"] == "marketplace"
		mj := candidates[j].Tags["amenity"] == "marketplace"
		if mi != mj {
			return mi
		}
		return candidates[i].ID < candidates[j].ID
	})

	for _, n := range candidates {
		p := Point{Lat: n.Lat, Lon: n.Lon}
		if p.Validate() == nil {
			return p, true
		}
	}
	return Point{}, false
}

// GeocodeCache stores geocoding outcomes, including misses.
type GeocodeCache interface {
	Get(key string) (entry CacheEntry, ok bool, err error)
	Set(key string, entry CacheEntry) error
}

// CacheEntry is a cached geocoding outcome.
type CacheEntry struct {
	Point Point `json:"point"`
	Found bool  `json:"found"`
}

// CachedGeocoder consults a cache before the backend and records both hits and misses.
type CachedGeocoder struct {
	backend Geocoder
	cache   GeocodeCache
}

// NewCachedGeocoder wraps backend with cache.
func NewCachedGeocoder(backend Geocoder, cache GeocodeCache) *CachedGeocoder {
	return &CachedGeocoder{backend: backend, cache: cache}
}

// Geocode implements Geocoder. Cache errors are logged and treated as misses.
// Backend errors are not cached.
func (c *CachedGeocoder) Geocode(ctx context.Context, name, county string) (Point, bool, error) {
	key := cacheKey(name, county)
	log := logging.WithComponent("geocoder")

	if entry, ok, err := c.cache.Get(key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("geocode cache read failed")
	} else if ok {
		metrics.RecordGeocode("cache_hit")
		return entry.Point, entry.Found, nil
	}

	p, found, err := c.backend.Geocode(ctx, name, county)
	if err != nil {
		metrics.RecordGeocode("error")
		return Point{}, false, err
	}
	if found {
		metrics.RecordGeocode("found")
	} else {
		metrics.RecordGeocode("not_found")
	}

	if err := c.cache.Set(key, CacheEntry{Point: p, Found: found}); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("geocode cache write failed")
	}
	return p, found, nil
}

func cacheKey(name, county string) string {
	return "geocode:" + NormalizeName(county) + "|" + NormalizeName(name)
}
