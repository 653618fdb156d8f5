// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

// Package geo provides great-circle distance, the static place gazetteer used to
// resolve farmer and market locations, and an optional OpenStreetMap geocoder for
// markets the gazetteer does not know.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKM is the mean Earth radius used by Distance.
const EarthRadiusKM = 6371.0

// ErrInvalidCoordinate is returned for NaN, infinite, or out-of-range coordinates.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point is a WGS84 latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the point is finite and within [-90,90] x [-180,180].
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("%w: non-finite value (%v, %v)", ErrInvalidCoordinate, p.Lat, p.Lon)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, p.Lon)
	}
	return nil
}

// Distance returns the haversine great-circle distance between a and b in kilometers.
// The result is symmetric, non-negative, and zero for identical points.
func Distance(a, b Point) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}

	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	// Rounding can push h slightly outside [0,1] for antipodal or identical points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKM * math.Asin(math.Sqrt(h)), nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
