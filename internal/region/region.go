// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

// Package region maps counties to coarse regional clusters. Region membership
// is a ranking affinity signal only; it plays no part in distance.
package region

import (
	"fmt"
	"sort"
	"strings"
)

// Index is an immutable region -> member set table. Build one at startup with
// New and share it between requests.
type Index struct {
	byMember map[string]string
	members  map[string][]string
}

// New builds an index from clusters. Member and region names are matched
// case-insensitively after trimming. A member listed under two regions is an error.
func New(clusters map[string][]string) (*Index, error) {
	idx := &Index{
		byMember: make(map[string]string),
		members:  make(map[string][]string, len(clusters)),
	}

	for name, members := range clusters {
		region := normalize(name)
		if region == "" {
			return nil, fmt.Errorf("region with empty name")
		}
		if _, dup := idx.members[region]; dup {
			return nil, fmt.Errorf("region %q defined twice", region)
		}

		list := make([]string, 0, len(members))
		for _, m := range members {
			key := normalize(m)
			if key == "" {
				continue
			}
			if other, ok := idx.byMember[key]; ok && other != region {
				return nil, fmt.Errorf("location %q belongs to both %q and %q", key, other, region)
			}
			if _, ok := idx.byMember[key]; ok {
				continue
			}
			idx.byMember[key] = region
			list = append(list, key)
		}
		sort.Strings(list)
		idx.members[region] = list
	}

	return idx, nil
}

// MustNew is New for static tables; it panics on error.
func MustNew(clusters map[string][]string) *Index {
	idx, err := New(clusters)
	if err != nil {
		panic(err)
	}
	return idx
}

// RegionOf returns the region containing location. No fuzzy matching.
func (i *Index) RegionOf(location string) (string, bool) {
	r, ok := i.byMember[normalize(location)]
	return r, ok
}

// SameRegion is true iff a and b both resolve to the same region.
func (i *Index) SameRegion(a, b string) bool {
	ra, okA := i.RegionOf(a)
	rb, okB := i.RegionOf(b)
	return okA && okB && ra == rb
}

// InRegion reports whether location is a member of region.
func (i *Index) InRegion(region, location string) bool {
	r, ok := i.RegionOf(location)
	return ok && r == normalize(region)
}

// Regions returns the region names, sorted.
func (i *Index) Regions() []string {
	out := make([]string, 0, len(i.members))
	for r := range i.members {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Members returns a copy of the member list of region.
func (i *Index) Members(region string) []string {
	m := i.members[normalize(region)]
	out := make([]string, len(m))
	copy(out, m)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DefaultClusters returns the built-in Kenyan county clusters.
func DefaultClusters() map[string][]string {
	return map[string][]string{
		"nairobi_metropolitan": {"nairobi", "kajiado", "kiambu", "machakos"},
		"rift_valley":          {"nakuru", "uasin gishu", "kericho", "baringo", "bomet", "laikipia"},
		"western":              {"kakamega", "vihiga", "bungoma", "busia"},
		"nyanza":               {"kisumu", "homa bay", "migori", "siaya", "kisii", "nyamira"},
		"central":              {"nyeri", "kirinyaga", "murang'a", "muranga", "embu"},
		"coast":                {"mombasa", "kilifi", "lamu", "kwale", "taita taveta"},
		"eastern":              {"meru", "kitui", "makueni", "tharaka nithi"},
	}
}

// Merge returns base with overrides applied. An override replaces the whole
// member list of a region; a region with an empty list is removed.
func Merge(base, overrides map[string][]string) map[string][]string {
	out := make(map[string][]string, len(base)+len(overrides))
	for k, v := range base {
		out[normalize(k)] = v
	}
	for k, v := range overrides {
		if len(v) == 0 {
			delete(out, normalize(k))
			continue
		}
		out[normalize(k)] = v
	}
	return out
}
