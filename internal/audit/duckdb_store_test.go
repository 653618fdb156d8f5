// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

//go:build integration

package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func setupDuckDBStore(t *testing.T) *DuckDBStore {
	t.Helper()

	db, err := OpenDuckDB("")
	if err != nil {
		t.Fatalf("Failed to open in-memory DuckDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewDuckDBStore(db)
	if err := s.CreateTable(context.Background()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	return s
}

func TestDuckDBStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := setupDuckDBStore(t)

	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := testRecord("r1", "maize", ts)
	start := ts.AddDate(0, 0, 2)
	rec.SellStart = &start
	rec.RequestID = "req-1"

	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("duplicate Save should be ignored: %v", err)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.BestPrice == nil || *got.BestPrice != 50 {
		t.Errorf("best price = %v", got.BestPrice)
	}
	if got.SellStart == nil || !got.SellStart.Equal(start) || got.SellEnd != nil {
		t.Errorf("window = %v..%v", got.SellStart, got.SellEnd)
	}
	if len(got.DataSources) != 2 || got.RequestID != "req-1" || got.CorrelationID != "" {
		t.Errorf("record = %+v", got)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v", err)
	}
}

func TestDuckDBStore_QueryCountDelete(t *testing.T) {
	ctx := context.Background()
	s := setupDuckDBStore(t)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, crop := range []string{"maize", "beans", "maize", "maize"} {
		id := string(rune('a' + i))
		if err := s.Save(ctx, testRecord(id, crop, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	maize, err := s.Query(ctx, QueryFilter{Crop: "Maize", Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(maize) != 2 || maize[0].ID != "d" || maize[1].ID != "c" {
		t.Errorf("maize = %v", ids(maize))
	}

	n, err := s.Count(ctx, QueryFilter{Crop: "maize"})
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v", n, err)
	}

	removed, err := s.Delete(ctx, base.Add(90*time.Minute))
	if err != nil || removed != 2 {
		t.Errorf("Delete = %d, %v", removed, err)
	}
}
