// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

// Package audit keeps a transparency log of every piece of advice given:
// which model produced it, which data sources fed it, the start of the
// prompt, and the market and selling window recommended.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/agrimarket/internal/events"
)

// ErrNotFound is returned by Store.Get for unknown IDs.
var ErrNotFound = errors.New("audit record not found")

// Record is one advice audit entry. ID is the originating event ID, so
// redelivered events do not create duplicates.
type Record struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`

	FarmerName string `json:"farmer_name"`
	Location   string `json:"location"`
	Crop       string `json:"crop"`
	Language   string `json:"language"`
	NoData     bool   `json:"no_data"`

	CandidateCount   int        `json:"candidate_count"`
	BestMarket       string     `json:"best_market,omitempty"`
	BestMarketCounty string     `json:"best_market_county,omitempty"`
	BestPrice        *float64   `json:"best_price,omitempty"`
	SellStart        *time.Time `json:"sell_start,omitempty"`
	SellEnd          *time.Time `json:"sell_end,omitempty"`

	ExplanationSource string   `json:"explanation_source"`
	ModelName         string   `json:"model_name,omitempty"`
	DataSources       []string `json:"data_sources"`
	PromptSnippet     string   `json:"prompt_snippet"`
}

// RecordFromEvent converts an AdviceIssued event.
func RecordFromEvent(e *events.AdviceIssued) *Record {
	return &Record{
		ID:                e.EventID,
		Timestamp:         e.Timestamp,
		RequestID:         e.RequestID,
		CorrelationID:     e.CorrelationID,
		FarmerName:        e.FarmerName,
		Location:          e.Location,
		Crop:              e.Crop,
		Language:          e.Language,
		NoData:            e.NoData,
		CandidateCount:    e.CandidateCount,
		BestMarket:        e.BestMarket,
		BestMarketCounty:  e.BestMarketCounty,
		BestPrice:         e.BestPrice,
		SellStart:         e.SellStart,
		SellEnd:           e.SellEnd,
		ExplanationSource: e.ExplanationSource,
		ModelName:         e.ModelName,
		DataSources:       append([]string(nil), e.DataSources...),
		PromptSnippet:     e.PromptSnippet,
	}
}

// Store defines the interface for audit record persistence.
type Store interface {
	// Save persists a record. Saving an existing ID is a no-op.
	Save(ctx context.Context, r *Record) error

	// Get retrieves a record by ID.
	Get(ctx context.Context, id string) (*Record, error)

	// Query returns records matching the filter, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Record, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes records older than the cutoff.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	Crop              string     `json:"crop,omitempty"`
	Location          string     `json:"location,omitempty"`
	ExplanationSource string     `json:"explanation_source,omitempty"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	EndTime           *time.Time `json:"end_time,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DefaultQueryFilter returns a filter for the 100 most recent records.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}
