// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

// Package prices loads market price data and publishes it to the ranking
// engine as immutable snapshots.
//
// Sources:
//   - CSVSource reads a CSV file through DuckDB's read_csv
//   - PostgresSource reads the markets / market_prices schema with sqlx
//
// A Holder keeps the current *Table behind an atomic pointer. Reloads build a
// new Table and swap it in; a published Table is never mutated, so request
// handlers read it without locking.
package prices

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/agrimarket/internal/geo"
)

// ErrNoSnapshot is returned when no price table has been loaded yet.
var ErrNoSnapshot = errors.New("no price snapshot loaded")

// Record is one observed price for a crop at a market on a date.
// Date is the zero time when the source carries no date column.
type Record struct {
	Market         string     `json:"market"`
	County         string     `json:"county"`
	Crop           string     `json:"crop"`
	Date           time.Time  `json:"date"`
	RetailPrice    float64    `json:"retail_price"`
	WholesalePrice *float64   `json:"wholesale_price,omitempty"`
	Unit           string     `json:"unit,omitempty"`
	Coords         *geo.Point `json:"coords,omitempty"`
}

// SkippedRow records an input row rejected during loading or ranking.
type SkippedRow struct {
	Line   int    `json:"line,omitempty"`
	Market string `json:"market,omitempty"`
	Reason string `json:"reason"`
}

func (s SkippedRow) String() string {
	if s.Line > 0 {
		return fmt.Sprintf("line %d (%s): %s", s.Line, s.Market, s.Reason)
	}
	return fmt.Sprintf("%s: %s", s.Market, s.Reason)
}

// NormalizeCrop lower-cases a crop name and collapses whitespace so
// " Irish  Potatoes" matches "irish potatoes".
func NormalizeCrop(crop string) string {
	return strings.Join(strings.Fields(strings.ToLower(crop)), " ")
}

// Table is an immutable, ordered snapshot of price records.
type Table struct {
	Records  []Record     `json:"-"`
	Skipped  []SkippedRow `json:"skipped"`
	LoadedAt time.Time    `json:"loaded_at"`
	Source   string       `json:"source"`
}

// NewTable creates a table stamped with the current time. Records keep their
// order; crops are normalized.
func NewTable(source string, records []Record, skipped []SkippedRow) *Table {
	out := make([]Record, len(records))
	for i, r := range records {
		r.Crop = NormalizeCrop(r.Crop)
		r.Market = strings.TrimSpace(r.Market)
		r.County = strings.TrimSpace(r.County)
		out[i] = r
	}
	return &Table{
		Records:  out,
		Skipped:  skipped,
		LoadedAt: time.Now().UTC(),
		Source:   source,
	}
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// ForCrop returns the records whose normalized crop matches, in table order.
func (t *Table) ForCrop(crop string) []Record {
	if t == nil {
		return nil
	}
	crop = NormalizeCrop(crop)
	var out []Record
	for _, r := range t.Records {
		if r.Crop == crop {
			out = append(out, r)
		}
	}
	return out
}

// History returns the records for one market and crop ordered by date. Rows
// sharing a date keep table order.
func (t *Table) History(market, crop string) []Record {
	if t == nil {
		return nil
	}
	crop = NormalizeCrop(crop)
	var out []Record
	for _, r := range t.Records {
		if r.Crop == crop && strings.EqualFold(r.Market, strings.TrimSpace(market)) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Crops returns the distinct crops in the table, sorted.
func (t *Table) Crops() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, r := range t.Records {
		seen[r.Crop] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
