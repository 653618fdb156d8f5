// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package geo

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// BadgerCache persists geocoding outcomes in a BadgerDB directory so lookups
// survive restarts. Entries expire after the configured TTL.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadgerCache opens (or creates) a cache at path. An empty path opens an
// in-memory database.
func OpenBadgerCache(path string, ttl time.Duration) (*BadgerCache, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open geocode cache: %w", err)
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &BadgerCache{db: db, ttl: ttl}, nil
}

// Get implements GeocodeCache.
func (c *BadgerCache) Get(key string) (CacheEntry, bool, error) {
	var entry CacheEntry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("geocode cache get %q: %w", key, err)
	}
	return entry, true, nil
}

// Set implements GeocodeCache.
func (c *BadgerCache) Set(key string, entry CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), data).WithTTL(c.ttl))
	})
}

// Close closes the underlying database.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}

// MemoryCache is a map-backed GeocodeCache for tests and for running without
// a cache directory.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]CacheEntry)}
}

// Get implements GeocodeCache.
func (m *MemoryCache) Get(key string) (CacheEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

// Set implements GeocodeCache.
func (m *MemoryCache) Set(key string, entry CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}
