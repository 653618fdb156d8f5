// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package prices

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agrimarket/internal/logging"
	"github.com/tomtom215/agrimarket/internal/metrics"
)

// Enricher post-processes a freshly loaded table before it is published.
// It must return a new table rather than mutate its input.
type Enricher interface {
	Enrich(ctx context.Context, t *Table) *Table
}

// Holder owns the current price snapshot.
// It is safe for concurrent use.
type Holder struct {
	source   Source
	enricher Enricher
	current  atomic.Pointer[Table]
	reloadMu sync.Mutex
	logger   zerolog.Logger
}

// NewHolder creates a holder for source. enricher may be nil.
func NewHolder(source Source, enricher Enricher) *Holder {
	return &Holder{
		source:   source,
		enricher: enricher,
		logger:   logging.WithComponent("prices"),
	}
}

// Current returns the published table or ErrNoSnapshot.
func (h *Holder) Current() (*Table, error) {
	t := h.current.Load()
	if t == nil {
		return nil, ErrNoSnapshot
	}
	return t, nil
}

// Ready reports whether a snapshot has been published.
func (h *Holder) Ready() bool {
	return h.current.Load() != nil
}

// Set publishes t directly. Used by tests and by callers that build tables in memory.
func (h *Holder) Set(t *Table) {
	h.current.Store(t)
}

// Reload loads a new table from the source and publishes it. On failure the
// previous snapshot stays in place. Concurrent reloads are serialized.
func (h *Holder) Reload(ctx context.Context) (*Table, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	start := time.Now()
	t, err := h.source.Load(ctx)
	if err != nil {
		metrics.RecordPriceReload(h.source.Name(), 0, 0, err)
		h.logger.Error().Err(err).Str("source", h.source.Name()).Msg("price reload failed")
		return nil, fmt.Errorf("reload prices from %s: %w", h.source.Name(), err)
	}

	if h.enricher != nil {
		t = h.enricher.Enrich(ctx, t)
	}

	h.current.Store(t)
	metrics.RecordPriceReload(h.source.Name(), t.Len(), len(t.Skipped), nil)

	h.logger.Info().
		Str("source", h.source.Name()).
		Int("rows", t.Len()).
		Int("skipped", len(t.Skipped)).
		Strs("crops", t.Crops()).
		Dur("duration", time.Since(start)).
		Msg("price snapshot published")

	for _, s := range t.Skipped {
		h.logger.Debug().Str("row", s.String()).Msg("skipped price row")
	}

	return t, nil
}
