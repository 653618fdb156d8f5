// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory storage.
// Suitable for development and testing. Data is lost on restart.
type MemoryStore struct {
	records []Record
	ids     map[string]struct{}
	mu      sync.RWMutex
	maxLen  int
}

// NewMemoryStore creates a new in-memory audit store.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		records: make([]Record, 0, 64),
		ids:     make(map[string]struct{}),
		maxLen:  maxLen,
	}
}

// Save persists an audit record.
func (s *MemoryStore) Save(_ context.Context, r *Record) error {
	if r == nil {
		return fmt.Errorf("record cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.ids[r.ID]; dup {
		return nil
	}

	// Drop the oldest 10% when full
	if len(s.records) >= s.maxLen {
		removeCount := s.maxLen / 10
		if removeCount == 0 {
			removeCount = 1
		}
		for _, old := range s.records[:removeCount] {
			delete(s.ids, old.ID)
		}
		s.records = s.records[removeCount:]
	}

	s.records = append(s.records, *r)
	s.ids[r.ID] = struct{}{}
	return nil
}

// Get retrieves a record by ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			r := s.records[i]
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Query retrieves records matching the filter, newest first.
func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []Record{}
	skipped := 0
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if !matches(&r, &filter) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		results = append(results, r)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}
	return results, nil
}

// Count returns the number of records matching the filter.
func (s *MemoryStore) Count(_ context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.records {
		if matches(&s.records[i], &filter) {
			n++
		}
	}
	return n, nil
}

// Delete removes records older than the cutoff.
func (s *MemoryStore) Delete(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for _, r := range s.records {
		if r.Timestamp.Before(olderThan) {
			delete(s.ids, r.ID)
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return removed, nil
}

func matches(r *Record, f *QueryFilter) bool {
	if f.Crop != "" && !strings.EqualFold(r.Crop, f.Crop) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(r.Location, f.Location) {
		return false
	}
	if f.ExplanationSource != "" && r.ExplanationSource != f.ExplanationSource {
		return false
	}
	if f.StartTime != nil && r.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && r.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}
