// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package geo

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/serjvanilla/go-overpass"
)

func TestDistance_Properties(t *testing.T) {
	t.Parallel()

	points := []Point{
		{-1.2864, 36.8172}, // nairobi
		{-1.853, 36.776},   // kajiado
		{-4.0435, 39.6682}, // mombasa
		{0.5143, 35.2698},  // eldoret
		{0, 0},
		{89.9, 179.9},
	}

	for _, a := range points {
		d, err := Distance(a, a)
		if err != nil {
			t.Fatalf("Distance(%v, %v) error: %v", a, a, err)
		}
		if d != 0 {
			t.Errorf("Distance to self = %v, want 0", d)
		}
		for _, b := range points {
			ab, err := Distance(a, b)
			if err != nil {
				t.Fatalf("Distance(%v, %v) error: %v", a, b, err)
			}
			ba, _ := Distance(b, a)
			if ab < 0 {
				t.Errorf("Distance(%v, %v) negative: %v", a, b, ab)
			}
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("Distance not symmetric: %v vs %v", ab, ba)
			}
		}
	}
}

func TestDistance_KnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		a, b    Point
		want    float64
		epsilon float64
	}{
		{"one degree of latitude", Point{0, 0}, Point{1, 0}, 111.19, 0.05},
		{"nairobi to kajiado", Point{-1.2864, 36.8172}, Point{-1.853, 36.776}, 63.2, 1.0},
		{"nairobi to mombasa", Point{-1.2864, 36.8172}, Point{-4.0435, 39.6682}, 440, 5},
		{"antipodal", Point{0, 0}, Point{0, 180}, math.Pi * EarthRadiusKM, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Distance(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > tt.epsilon {
				t.Errorf("Distance = %.3f, want %.3f ± %.3f", got, tt.want, tt.epsilon)
			}
		})
	}
}

func TestDistance_InvalidInput(t *testing.T) {
	t.Parallel()

	bad := []Point{
		{math.NaN(), 0},
		{0, math.Inf(1)},
		{91, 0},
		{0, -181},
	}
	for _, p := range bad {
		if _, err := Distance(p, Point{}); !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("Distance(%v) error = %v, want ErrInvalidCoordinate", p, err)
		}
		if _, err := Distance(Point{}, p); !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("Distance(_, %v) error = %v, want ErrInvalidCoordinate", p, err)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"City_Market":      "city market",
		"  Nairobi ":       "nairobi",
		"Uasin   Gishu":    "uasin gishu",
		"":                 "",
		"KAJIADO":          "kajiado",
		"homa_bay\tcounty": "homa bay county",
	}
	for in, want := range tests {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGazetteer_Resolve(t *testing.T) {
	t.Parallel()

	g, err := NewGazetteer(DefaultPlaces(), DefaultReference)
	if err != nil {
		t.Fatalf("NewGazetteer: %v", err)
	}

	res := g.Resolve("Kajiado")
	if res.Fallback {
		t.Error("kajiado should resolve without fallback")
	}
	if res.Place.Kind != KindTown {
		t.Errorf("kajiado should resolve to the town, got %s", res.Place.Kind)
	}
	if res.Place.County != "kajiado" {
		t.Errorf("county = %q, want kajiado", res.Place.County)
	}

	res = g.Resolve("Atlantis")
	if !res.Fallback {
		t.Error("unknown place should fall back")
	}
	if res.Place.Name != "nairobi" {
		t.Errorf("fallback place = %q, want nairobi", res.Place.Name)
	}
	if res.Query != "Atlantis" {
		t.Errorf("query should be preserved, got %q", res.Query)
	}

	if p, ok := g.Lookup("city_market"); !ok || p.County != "nairobi" {
		t.Errorf("Lookup(city_market) = %+v, %v", p, ok)
	}
	if _, ok := g.Lookup("atlantis"); ok {
		t.Error("Lookup should not fall back")
	}
	if g.Len() != len(g.Names()) {
		t.Errorf("Len %d != len(Names) %d", g.Len(), len(g.Names()))
	}
}

func TestNewGazetteer_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewGazetteer([]Place{{Name: "x", Point: Point{100, 0}}}, "x"); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("expected invalid coordinate error, got %v", err)
	}
	if _, err := NewGazetteer([]Place{{Name: "x", Point: Point{1, 1}}}, "y"); err == nil {
		t.Error("expected error for missing reference")
	}
	if _, err := NewGazetteer([]Place{{Name: "  ", Point: Point{1, 1}}}, "x"); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestGazetteer_WithReferencePoint(t *testing.T) {
	t.Parallel()

	g, err := NewGazetteer(DefaultPlaces(), DefaultReference)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := g.WithReferencePoint("Depot", Point{-1.0, 37.0})
	if err != nil {
		t.Fatal(err)
	}
	res := g2.Resolve("nowhere")
	if !res.Fallback || res.Place.Point != (Point{-1.0, 37.0}) {
		t.Errorf("unexpected fallback: %+v", res)
	}
	if _, err := g.WithReferencePoint("bad", Point{math.NaN(), 0}); err == nil {
		t.Error("expected error for NaN reference")
	}
}

func TestBuildOverpassQuery_EscapesName(t *testing.T) {
	t.Parallel()

	q := buildOverpassQuery(`wakulima "main" (v2)`, 0)
	if !strings.Contains(q, `wakulima \"main\" \(v2\)`) {
		t.Errorf("name not escaped in query: %s", q)
	}
	if !strings.Contains(q, `"ISO3166-1"="KE"`) {
		t.Error("query should be restricted to Kenya")
	}
}

func node(id int64, lat, lon float64, tags map[string]string) *overpass.Node {
	n := &overpass.Node{Lat: lat, Lon: lon}
	n.ID = id
	n.Tags = tags
	return n
}

func TestPickNode(t *testing.T) {
	t.Parallel()

	nodes := []*overpass.Node{
		node(30, -1.0, 36.0, map[string]string{"place": "town"}),
		node(20, -1.1, 36.1, map[string]string{"amenity": "marketplace"}),
		node(10, -1.2, 36.2, map[string]string{"amenity": "marketplace", "addr:county": "Kiambu"}),
	}

	p, ok := pickNode(nodes, "")
	if !ok || p != (Point{-1.2, 36.2}) {
		t.Errorf("expected lowest-id marketplace, got %v %v", p, ok)
	}

	p, ok = pickNode(nodes, "kiambu")
	if !ok || p != (Point{-1.2, 36.2}) {
		t.Errorf("expected county match, got %v %v", p, ok)
	}

	p, ok = pickNode(nodes, "turkana")
	if !ok || p != (Point{-1.2, 36.2}) {
		t.Errorf("unmatched county should fall back to all nodes, got %v %v", p, ok)
	}

	if _, ok := pickNode(nil, ""); ok {
		t.Error("no nodes should yield not found")
	}
}

type fakeGeocoder struct {
	calls int
	point Point
	found bool
	err   error
}

func (f *fakeGeocoder) Geocode(_ context.Context, _, _ string) (Point, bool, error) {
	f.calls++
	return f.point, f.found, f.err
}

func TestCachedGeocoder(t *testing.T) {
	t.Parallel()

	backend := &fakeGeocoder{point: Point{-0.5, 37.0}, found: true}
	c := NewCachedGeocoder(backend, NewMemoryCache())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, found, err := c.Geocode(ctx, "Karatina", "Nyeri")
		if err != nil || !found || p != backend.point {
			t.Fatalf("Geocode = %v %v %v", p, found, err)
		}
	}
	if backend.calls != 1 {
		t.Errorf("backend called %d times, want 1", backend.calls)
	}

	// Misses are cached too.
	miss := &fakeGeocoder{}
	c = NewCachedGeocoder(miss, NewMemoryCache())
	_, _, _ = c.Geocode(ctx, "nowhere", "")
	_, found, _ := c.Geocode(ctx, "nowhere", "")
	if found || miss.calls != 1 {
		t.Errorf("miss should be cached: found=%v calls=%d", found, miss.calls)
	}

	// Errors are not cached.
	failing := &fakeGeocoder{err: ErrGeocoderUnavailable}
	c = NewCachedGeocoder(failing, NewMemoryCache())
	_, _, err := c.Geocode(ctx, "x", "")
	if !errors.Is(err, ErrGeocoderUnavailable) {
		t.Errorf("expected ErrGeocoderUnavailable, got %v", err)
	}
	_, _, _ = c.Geocode(ctx, "x", "")
	if failing.calls != 2 {
		t.Errorf("errors must not be cached, calls=%d", failing.calls)
	}
}

func TestBadgerCache_RoundTrip(t *testing.T) {
	cache, err := OpenBadgerCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("OpenBadgerCache: %v", err)
	}
	defer cache.Close()

	if _, ok, err := cache.Get("missing"); ok || err != nil {
		t.Errorf("Get(missing) = %v, %v", ok, err)
	}

	want := CacheEntry{Point: Point{-0.42, 36.95}, Found: true}
	if err := cache.Set("geocode:nyeri|karatina", want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := cache.Get("geocode:nyeri|karatina")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}
