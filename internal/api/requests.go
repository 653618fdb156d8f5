// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package api

import (
	"fmt"
	"time"

	"github.com/tomtom215/agrimarket/internal/advice"
	"github.com/tomtom215/agrimarket/internal/explain"
	"github.com/tomtom215/agrimarket/internal/forecast"
)

// AdviseRequest is the body of /advise and /recommend.
//
// top_n is not range-checked here: the engine rejects negatives with
// INVALID_INPUT and clamps large values. language is parsed by
// explain.ParseLanguage, case-insensitively.
type AdviseRequest struct {
	Name         string `json:"name" validate:"max=60"`
	Location     string `json:"location" validate:"notblank,max=100"`
	Crop         string `json:"crop" validate:"notblank,max=50"`
	TopN         *int   `json:"top_n,omitempty"`
	Language     string `json:"language,omitempty"`
	WithForecast bool   `json:"with_forecast,omitempty"`
}

func (req *AdviseRequest) toServiceRequest() (advice.Request, error) {
	lang, err := explain.ParseLanguage(req.Language)
	if err != nil {
		return advice.Request{}, err
	}
	return advice.Request{
		Name:         req.Name,
		Location:     req.Location,
		Crop:         req.Crop,
		TopN:         req.TopN,
		Language:     lang,
		WithForecast: req.WithForecast,
	}, nil
}

// SeriesPoint is one forecast day in a selling-window request.
type SeriesPoint struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Price float64 `json:"price"`
}

// SellingWindowRequest asks for the best window of a caller-supplied series.
type SellingWindowRequest struct {
	Series     []SeriesPoint `json:"series" validate:"min=1,max=366,dive"`
	TopPercent *float64      `json:"top_percent,omitempty"`
}

func (req *SellingWindowRequest) points() ([]forecast.Point, error) {
	out := make([]forecast.Point, len(req.Series))
	for i, p := range req.Series {
		d, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return nil, fmt.Errorf("series[%d].date: %w", i, err)
		}
		out[i] = forecast.Point{Date: d, Price: p.Price}
	}
	return out, nil
}

// TrendResponse is returned by the market trend endpoint.
type TrendResponse struct {
	Market  string `json:"market"`
	Crop    string `json:"crop"`
	Trend   string `json:"trend"`
	Message string `json:"message"`
	Points  int    `json:"points"`
}

// AuditListResponse is returned by the audit endpoint.
type AuditListResponse struct {
	Records interface{} `json:"records"`
	Total   int64       `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}

// ReloadResponse is returned by the admin reload endpoint.
type ReloadResponse struct {
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	Skipped  int       `json:"skipped"`
	LoadedAt time.Time `json:"loaded_at"`
}
