// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package geo

import (
	"fmt"
	"sort"
	"strings"
)

// PlaceKind distinguishes market towns from county centroids.
type PlaceKind string

const (
	KindTown   PlaceKind = "town"
	KindCounty PlaceKind = "county"
)

// Place is a named location with coordinates. County is the administrative
// county the place lies in; for county centroids it equals Name.
type Place struct {
	Name   string    `json:"name"`
	County string    `json:"county"`
	Kind   PlaceKind `json:"kind"`
	Point  Point     `json:"point"`
}

// Resolution is the outcome of resolving a free-text location.
// Fallback is true when the name was unknown and the reference place was used.
type Resolution struct {
	Query    string `json:"query"`
	Place    Place  `json:"place"`
	Fallback bool   `json:"fallback"`
}

// Gazetteer is an immutable name -> place table. Build one at startup and share it.
type Gazetteer struct {
	places    map[string]Place
	reference Place
}

// NormalizeName lower-cases, trims, maps underscores to spaces and collapses
// runs of whitespace so "City_Market" and " city  market" are the same key.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.ReplaceAll(name, "_", " "))
	return strings.Join(strings.Fields(name), " ")
}

// NewGazetteer builds a gazetteer from places. Towns win over county centroids
// with the same name. reference must name one of the places; it is used when
// Resolve cannot find a location.
func NewGazetteer(places []Place, reference string) (*Gazetteer, error) {
	g := &Gazetteer{places: make(map[string]Place, len(places))}

	for _, p := range places {
		if err := p.Point.Validate(); err != nil {
			return nil, fmt.Errorf("place %q: %w", p.Name, err)
		}
		key := NormalizeName(p.Name)
		if key == "" {
			return nil, fmt.Errorf("place with empty name at (%v, %v)", p.Point.Lat, p.Point.Lon)
		}
		p.County = NormalizeName(p.County)
		if existing, ok := g.places[key]; ok && existing.Kind == KindTown && p.Kind == KindCounty {
			continue
		}
		g.places[key] = p
	}

	ref, ok := g.places[NormalizeName(reference)]
	if !ok {
		return nil, fmt.Errorf("reference location %q is not in the gazetteer", reference)
	}
	g.reference = ref

	return g, nil
}

// WithReferencePoint returns a copy whose fallback is an explicit coordinate
// rather than a named place.
func (g *Gazetteer) WithReferencePoint(name string, p Point) (*Gazetteer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Gazetteer{
		places:    g.places,
		reference: Place{Name: NormalizeName(name), County: g.reference.County, Kind: KindTown, Point: p},
	}, nil
}

// Lookup finds a place by exact normalized name. There is no fallback.
func (g *Gazetteer) Lookup(name string) (Place, bool) {
	p, ok := g.places[NormalizeName(name)]
	return p, ok
}

// Resolve finds a place by name, falling back to the reference place.
func (g *Gazetteer) Resolve(name string) Resolution {
	if p, ok := g.Lookup(name); ok {
		return Resolution{Query: name, Place: p}
	}
	return Resolution{Query: name, Place: g.reference, Fallback: true}
}

// Reference returns the fallback place.
func (g *Gazetteer) Reference() Place {
	return g.reference
}

// Names returns all known place names, sorted.
func (g *Gazetteer) Names() []string {
	names := make([]string, 0, len(g.places))
	for k := range g.places {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of places.
func (g *Gazetteer) Len() int {
	return len(g.places)
}

// DefaultReference is the name of the default fallback place.
const DefaultReference = "nairobi"

// DefaultPlaces returns the built-in Kenyan market towns and county centroids.
// Coordinates are approximate and offline.
func DefaultPlaces() []Place {
	towns := []Place{
		// Kajiado
		{Name: "kajiado", County: "kajiado", Point: Point{-1.853, 36.776}},
		{Name: "ngong", County: "kajiado", Point: Point{-1.3591, 36.6667}},
		{Name: "kiserian", County: "kajiado", Point: Point{-1.4452, 36.7573}},
		{Name: "kitengela", County: "kajiado", Point: Point{-1.4691, 36.9867}},
		{Name: "isinya", County: "kajiado", Point: Point{-1.6792, 36.8499}},
		{Name: "namanga", County: "kajiado", Point: Point{-2.5461, 36.7919}},
		// Nairobi markets
		{Name: "gikomba", County: "nairobi", Point: Point{-1.2834, 36.8395}},
		{Name: "marikiti", County: "nairobi", Point: Point{-1.2837, 36.8241}},
		{Name: "city market", County: "nairobi", Point: Point{-1.2830, 36.8160}},
		{Name: "wakulima", County: "nairobi", Point: Point{-1.2837, 36.8241}},
		// Kiambu
		{Name: "ruiru", County: "kiambu", Point: Point{-1.1496, 36.9630}},
		{Name: "thika", County: "kiambu", Point: Point{-1.0420, 37.0720}},
		// Western
		{Name: "webuye", County: "bungoma", Point: Point{0.6000, 34.7667}},
		{Name: "bungoma", County: "bungoma", Point: Point{0.5635, 34.5606}},
		// Coast
		{Name: "mombasa", County: "mombasa", Point: Point{-4.0435, 39.6682}},
		{Name: "kongowea", County: "mombasa", Point: Point{-4.0310, 39.6820}},
		// Rift valley and lake towns
		{Name: "eldoret", County: "uasin gishu", Point: Point{0.5143, 35.2698}},
		{Name: "kisumu", County: "kisumu", Point: Point{-0.0917, 34.7680}},
		{Name: "nakuru", County: "nakuru", Point: Point{-0.3031, 36.0800}},
	}
	for i := range towns {
		towns[i].Kind = KindTown
	}

	counties := []Place{
		{Name: "nairobi", Point: Point{-1.2864, 36.8172}},
		{Name: "kajiado", Point: Point{-2.0981, 36.7820}},
		{Name: "kiambu", Point: Point{-1.1714, 36.8356}},
		{Name: "machakos", Point: Point{-1.5177, 37.2634}},
		{Name: "nakuru", Point: Point{-0.3031, 36.0800}},
		{Name: "uasin gishu", Point: Point{0.5143, 35.2698}},
		{Name: "kericho", Point: Point{-0.3689, 35.2863}},
		{Name: "baringo", Point: Point{0.4667, 35.9667}},
		{Name: "bomet", Point: Point{-0.7813, 35.3416}},
		{Name: "laikipia", Point: Point{0.3606, 36.7820}},
		{Name: "narok", Point: Point{-1.0876, 35.8600}},
		{Name: "kakamega", Point: Point{0.2827, 34.7519}},
		{Name: "vihiga", Point: Point{0.0800, 34.7236}},
		{Name: "bungoma", Point: Point{0.5635, 34.5606}},
		{Name: "busia", Point: Point{0.4608, 34.1115}},
		{Name: "kisumu", Point: Point{-0.0917, 34.7680}},
		{Name: "homa bay", Point: Point{-0.5273, 34.4571}},
		{Name: "migori", Point: Point{-1.0634, 34.4731}},
		{Name: "siaya", Point: Point{0.0612, 34.2881}},
		{Name: "kisii", Point: Point{-0.6817, 34.7667}},
		{Name: "nyamira", Point: Point{-0.5669, 34.9341}},
		{Name: "nyeri", Point: Point{-0.4201, 36.9476}},
		{Name: "kirinyaga", Point: Point{-0.6591, 37.3827}},
		{Name: "murang'a", Point: Point{-0.7210, 37.1526}},
		{Name: "muranga", Point: Point{-0.7210, 37.1526}},
		{Name: "embu", Point: Point{-0.5388, 37.4596}},
		{Name: "mombasa", Point: Point{-4.0435, 39.6682}},
		{Name: "kilifi", Point: Point{-3.6305, 39.8499}},
		{Name: "lamu", Point: Point{-2.2717, 40.9020}},
		{Name: "kwale", Point: Point{-4.1816, 39.4606}},
		{Name: "taita taveta", Point: Point{-3.3161, 38.4850}},
		{Name: "meru", Point: Point{0.0463, 37.6559}},
		{Name: "kitui", Point: Point{-1.3670, 38.0106}},
		{Name: "makueni", Point: Point{-1.8038, 37.6200}},
		{Name: "tharaka nithi", Point: Point{-0.3000, 37.8833}},
	}
	for i := range counties {
		counties[i].Kind = KindCounty
		counties[i].County = counties[i].Name
	}

	return append(towns, counties...)
}
