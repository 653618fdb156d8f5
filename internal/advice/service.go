// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

// Package advice orchestrates a full advice request: rank markets on the
// current price snapshot, attach forecast selling windows, explain the result
// and publish an audit event.
package advice

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agrimarket/internal/events"
	"github.com/tomtom215/agrimarket/internal/explain"
	"github.com/tomtom215/agrimarket/internal/logging"
	"github.com/tomtom215/agrimarket/internal/prices"
	"github.com/tomtom215/agrimarket/internal/recommend"
)

// PromptSnippetLength is how much of the prompt is kept in audit events.
const PromptSnippetLength = 500

// Snapshots provides the current price table.
type Snapshots interface {
	Current() (*prices.Table, error)
}

// Publisher publishes advice events.
type Publisher interface {
	PublishAdvice(ctx context.Context, e *events.AdviceIssued) error
}

// Request is a farmer's advice request.
type Request struct {
	Name         string
	Location     string
	Crop         string
	TopN         *int
	Language     explain.Language
	WithForecast bool
}

// Advice is the full answer to a Request.
type Advice struct {
	Ranking     *recommend.RankResult `json:"ranking"`
	Explanation explain.Explanation   `json:"explanation"`
	Language    explain.Language      `json:"language"`
	DataSources []string              `json:"data_sources"`
	EventID     string                `json:"event_id,omitempty"`
}

// Service answers advice requests. It is safe for concurrent use.
type Service struct {
	engine    *recommend.Engine
	snapshots Snapshots
	advisor   *explain.Advisor
	publisher Publisher
	logger    zerolog.Logger
}

// NewService creates a Service. publisher may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(engine *recommend.Engine, snapshots Snapshots, advisor *explain.Advisor, publisher Publisher, logger zerolog.Logger) (*Service, error) {
	if engine == nil || snapshots == nil || advisor == nil {
		return nil, errors.New("engine, snapshots and advisor are required")
	}
	return &Service{
		engine:    engine,
		snapshots: snapshots,
		advisor:   advisor,
		publisher: publisher,
		logger:    logger.With().Str("component", "advice").Logger(),
	}, nil
}

// Recommend ranks markets without an explanation. Forecast windows are
// attached when requested and a provider is configured.
func (s *Service) Recommend(ctx context.Context, req Request) (*recommend.RankResult, error) {
	table, err := s.snapshots.Current()
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Rank(table, recommend.RankRequest{Location: req.Location, Crop: req.Crop, TopN: req.TopN})
	if err != nil {
		return nil, err
	}

	if req.WithForecast && !res.NoData {
		n := s.engine.AttachWindows(ctx, res)
		logging.Ctx(ctx).Debug().Int("windows", n).Str("crop", res.Crop).Msg("selling windows attached")
	}
	return res, nil
}

// Advise ranks, explains and publishes. Explanation and publish failures
// never fail the request.
func (s *Service) Advise(ctx context.Context, req Request) (*Advice, error) {
	lang := req.Language
	if lang == "" {
		lang = explain.LanguageEnglish
	}

	res, err := s.Recommend(ctx, req)
	if err != nil {
		return nil, err
	}

	ec := explain.BuildContext(explain.ContextInput{
		FarmerName: req.Name,
		Location:   req.Location,
		Language:   lang,
		Result:     res,
	})
	exp := s.advisor.Advise(ctx, ec)

	out := &Advice{
		Ranking:     res,
		Explanation: exp,
		Language:    lang,
		DataSources: ec.DataSources,
	}

	if s.publisher != nil {
		ev := buildEvent(ctx, ec, res, exp)
		if err := s.publisher.PublishAdvice(ctx, ev); err != nil {
			s.logger.Warn().Err(err).Str("event_id", ev.EventID).Msg("failed to publish advice event")
		} else {
			out.EventID = ev.EventID
		}
	}

	logging.Ctx(ctx).Info().
		Str("crop", res.Crop).
		Str("location", req.Location).
		Bool("no_data", res.NoData).
		Int("candidates", len(res.Candidates)).
		Str("explanation_source", string(exp.Source)).
		Msg("advice issued")

	return out, nil
}

func buildEvent(ctx context.Context, ec *explain.Context, res *recommend.RankResult, exp explain.Explanation) *events.AdviceIssued {
	ev := events.NewAdviceIssued()
	ev.RequestID = logging.RequestIDFromContext(ctx)
	ev.CorrelationID = logging.CorrelationIDFromContext(ctx)
	ev.FarmerName = ec.FarmerName
	ev.Location = ec.Location
	ev.Crop = res.Crop
	ev.Language = string(ec.Language)
	ev.NoData = res.NoData
	ev.CandidateCount = len(res.Candidates)
	ev.ExplanationSource = string(exp.Source)
	ev.ModelName = exp.Model
	ev.DataSources = ec.DataSources
	ev.PromptSnippet = explain.Snippet(exp.Prompt, PromptSnippetLength)

	if top, ok := res.Top(); ok {
		price := top.RetailPrice
		ev.BestMarket = top.Market
		ev.BestMarketCounty = top.County
		ev.BestPrice = &price
		ev.SellStart = top.BestSellStart
		ev.SellEnd = top.BestSellEnd
	}
	if ev.Crop == "" {
		ev.Crop = "unknown"
	}
	return ev
}
