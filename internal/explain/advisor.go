// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package explain

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agrimarket/internal/cache"
	"github.com/tomtom215/agrimarket/internal/metrics"
)

// Explanation is the text returned to the farmer plus its provenance.
type Explanation struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
	Model  string `json:"model,omitempty"`
	Prompt string `json:"-"`
}

// AdvisorConfig configures an Advisor.
type AdvisorConfig struct {
	// Timeout bounds each model call.
	Timeout time.Duration

	// CacheSize and CacheTTL configure the explanation cache. A zero size
	// disables caching.
	CacheSize int
	CacheTTL  time.Duration

	// ModelName is reported in Explanation.Model for model output.
	ModelName string
}

// Advisor produces an explanation for every context, falling back to
// deterministic text when the model is missing or fails.
type Advisor struct {
	explainer Explainer
	cfg       AdvisorConfig
	cache     *cache.LRU[string]
	logger    zerolog.Logger
}

// NewAdvisor creates an Advisor. A nil explainer means offline mode.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAdvisor(explainer Explainer, cfg AdvisorConfig, logger zerolog.Logger) *Advisor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	a := &Advisor{
		explainer: explainer,
		cfg:       cfg,
		logger:    logger.With().Str("component", "explain").Logger(),
	}
	if cfg.CacheSize > 0 {
		a.cache = cache.NewLRU[string](cfg.CacheSize, cfg.CacheTTL)
	}
	return a
}

// Online reports whether a model is configured.
func (a *Advisor) Online() bool {
	return a.explainer != nil
}

// Advise returns a non-empty explanation for c.
func (a *Advisor) Advise(ctx context.Context, c *Context) Explanation {
	prompt := BuildPrompt(c)

	if a.explainer == nil {
		metrics.RecordExplanation(string(SourceFallback))
		return Explanation{Text: FallbackText(c, FallbackOffline), Source: SourceFallback, Prompt: prompt}
	}

	key := cache.GenerateKey("explain", c)
	if a.cache != nil {
		if text, ok := a.cache.Get(key); ok {
			metrics.RecordExplanation(string(SourceCache))
			return Explanation{Text: text, Source: SourceCache, Model: a.cfg.ModelName, Prompt: prompt}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := a.explainer.Explain(callCtx, c)
	metrics.RecordExplainerCall(time.Since(start))

	if err != nil || text == "" {
		a.logger.Warn().Err(err).
			Str("crop", c.Crop).
			Bool("no_data", c.NoData).
			Dur("elapsed", time.Since(start)).
			Msg("explainer failed, using fallback text")
		metrics.RecordExplanation(string(SourceFallback))
		return Explanation{Text: FallbackText(c, FallbackFailed), Source: SourceFallback, Prompt: prompt}
	}

	if a.cache != nil {
		a.cache.Add(key, text)
	}
	metrics.RecordExplanation(string(SourceModel))
	return Explanation{Text: text, Source: SourceModel, Model: a.cfg.ModelName, Prompt: prompt}
}
