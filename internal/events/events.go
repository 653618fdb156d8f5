// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

// Package events carries domain events between the advice service and its
// consumers over Watermill, either in-process (gochannel) or over NATS.
package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TopicAdviceIssued carries AdviceIssued events. NATS stream names cannot
// contain dots, so the topic uses underscores.
const TopicAdviceIssued = "advice_issued"

// EventTypeAdviceIssued is the event type stored in message metadata.
const EventTypeAdviceIssued = "advice.issued"

// Errors returned by this package.
var (
	ErrBusClosed    = errors.New("event bus is closed")
	ErrInvalidEvent = errors.New("invalid event")
)

// AdviceIssued records one piece of advice given to a farmer.
type AdviceIssued struct {
	EventID       string    `json:"event_id"`
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

// NewAdviceIssued returns an event with a fresh ID and timestamp.
func NewAdviceIssued() *AdviceIssued {
	return &AdviceIssued{
		EventID:   uuid.New().String(),
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks the fields every consumer relies on.
func (e *AdviceIssued) Validate() error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("%w: missing event_id", ErrInvalidEvent)
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	case e.Crop == "":
		return fmt.Errorf("%w: missing crop", ErrInvalidEvent)
	case e.ExplanationSource == "":
		return fmt.Errorf("%w: missing explanation_source", ErrInvalidEvent)
	}
	return nil
}

// Marshal encodes the event.
func (e *AdviceIssued) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalAdviceIssued decodes and validates an event payload.
func UnmarshalAdviceIssued(data []byte) (*AdviceIssued, error) {
	var e AdviceIssued
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
