// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package region

import (
	"reflect"
	"testing"
)

func TestRegionOf(t *testing.T) {
	t.Parallel()

	idx := MustNew(DefaultClusters())

	tests := []struct {
		location string
		want     string
		ok       bool
	}{
		{"kajiado", "nairobi_metropolitan", true},
		{"  Kajiado ", "nairobi_metropolitan", true},
		{"UASIN GISHU", "rift_valley", true},
		{"murang'a", "central", true},
		{"taita taveta", "coast", true},
		{"narok", "", false},
		{"kaji", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := idx.RegionOf(tt.location)
		if got != tt.want || ok != tt.ok {
			t.Errorf("RegionOf(%q) = %q, %v; want %q, %v", tt.location, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSameRegion(t *testing.T) {
	t.Parallel()

	idx := MustNew(DefaultClusters())

	tests := []struct {
		a, b string
		want bool
	}{
		{"nairobi", "kajiado", true},
		{"Nairobi", "KIAMBU", true},
		{"nairobi", "mombasa", false},
		{"narok", "narok", false},
		{"narok", "nairobi", false},
	}
	for _, tt := range tests {
		if got := idx.SameRegion(tt.a, tt.b); got != tt.want {
			t.Errorf("SameRegion(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestInRegionAndMembers(t *testing.T) {
	t.Parallel()

	idx := MustNew(DefaultClusters())

	if !idx.InRegion("Western", "vihiga") {
		t.Error("vihiga should be in western")
	}
	if idx.InRegion("western", "nyeri") {
		t.Error("nyeri should not be in western")
	}

	want := []string{"bungoma", "busia", "kakamega", "vihiga"}
	if got := idx.Members("western"); !reflect.DeepEqual(got, want) {
		t.Errorf("Members(western) = %v, want %v", got, want)
	}

	// Members returns a copy.
	m := idx.Members("western")
	m[0] = "mutated"
	if idx.Members("western")[0] != "bungoma" {
		t.Error("Members must not expose internal state")
	}

	if got := len(idx.Regions()); got != 7 {
		t.Errorf("expected 7 regions, got %d", got)
	}
}

func TestNew_RejectsOverlap(t *testing.T) {
	t.Parallel()

	_, err := New(map[string][]string{
		"a": {"kajiado"},
		"b": {"Kajiado"},
	})
	if err == nil {
		t.Error("expected error for a location in two regions")
	}

	if _, err := New(map[string][]string{" ": {"x"}}); err == nil {
		t.Error("expected error for empty region name")
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	merged := Merge(DefaultClusters(), map[string][]string{
		"rift_valley": {"nakuru", "narok"},
		"coast":       nil,
		"north":       {"turkana", "marsabit"},
	})

	idx := MustNew(merged)
	if r, _ := idx.RegionOf("narok"); r != "rift_valley" {
		t.Errorf("narok region = %q, want rift_valley", r)
	}
	if _, ok := idx.RegionOf("eldoret"); ok {
		t.Error("unexpected region for eldoret")
	}
	if _, ok := idx.RegionOf("mombasa"); ok {
		t.Error("coast should have been removed")
	}
	if r, _ := idx.RegionOf("turkana"); r != "north" {
		t.Errorf("turkana region = %q, want north", r)
	}
}
