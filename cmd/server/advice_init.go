// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package main

import (
	"fmt"

	"github.com/tomtom215/agrimarket/internal/config"
	"github.com/tomtom215/agrimarket/internal/explain"
	"github.com/tomtom215/agrimarket/internal/forecast"
	"github.com/tomtom215/agrimarket/internal/geo"
	"github.com/tomtom215/agrimarket/internal/logging"
	"github.com/tomtom215/agrimarket/internal/recommend"
	"github.com/tomtom215/agrimarket/internal/region"
)

// buildEngineConfig maps RECOMMEND_* settings onto the engine.
func buildEngineConfig(cfg *config.Config) *recommend.Config {
	return &recommend.Config{
		TransportRatePerKM:  cfg.Recommend.TransportRatePerKM,
		DefaultTopN:         cfg.Recommend.DefaultTopN,
		MaxTopN:             cfg.Recommend.MaxTopN,
		CollapseByMarket:    cfg.Recommend.CollapseByMarket,
		WindowTopPercent:    cfg.Recommend.WindowTopPercent,
		ForecastHorizonDays: cfg.Recommend.ForecastHorizonDays,
		ForecastTimeout:     cfg.Recommend.ForecastTimeout,
	}
}

func initEngine(cfg *config.Config, gaz *geo.Gazetteer, regions *region.Index) (*recommend.Engine, error) {
	engine, err := recommend.NewEngine(buildEngineConfig(cfg), gaz, regions, logging.WithComponent("recommend"))
	if err != nil {
		return nil, fmt.Errorf("create ranking engine: %w", err)
	}

	if cfg.Forecast.URL != "" {
		engine.SetForecastProvider(forecast.NewHTTPClient(cfg.Forecast.URL, cfg.Forecast.Timeout))
		logging.Info().Str("url", cfg.Forecast.URL).Msg("Forecast service configured")
	} else {
		logging.Info().Msg("Forecast service not configured (FORECAST_URL), selling windows disabled")
	}

	return engine, nil
}

// initAdvisor wires the chat model when an API key is set. Without one every
// explanation uses the deterministic fallback text.
func initAdvisor(cfg *config.Config) (*explain.Advisor, error) {
	var explainer explain.Explainer
	if cfg.Explain.APIKey != "" {
		chat, err := explain.NewChatExplainer(explain.ChatConfig{
			APIKey:            cfg.Explain.APIKey,
			BaseURL:           cfg.Explain.BaseURL,
			Model:             cfg.Explain.Model,
			Timeout:           cfg.Explain.Timeout,
			RequestsPerMinute: cfg.Explain.RequestsPerMinute,
			MaxTokens:         cfg.Explain.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create explanation model client: %w", err)
		}
		explainer = chat
		logging.Info().Str("model", cfg.Explain.Model).Msg("Explanation model configured")
	} else {
		logging.Warn().Msg("No explanation API key (GEMINI_API_KEY), using fallback explanations")
	}

	return explain.NewAdvisor(explainer, explain.AdvisorConfig{
		Timeout:   cfg.Explain.Timeout,
		CacheSize: cfg.Explain.CacheSize,
		CacheTTL:  cfg.Explain.CacheTTL,
		ModelName: cfg.Explain.Model,
	}, logging.WithComponent("explain")), nil
}
