// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package forecast

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/agrimarket/internal/breaker"
	"github.com/tomtom215/agrimarket/internal/metrics"
)

// forecastRequest is the body sent to the forecasting service.
type forecastRequest struct {
	Crop   string `json:"crop"`
	Market string `json:"market"`
	Days   int    `json:"days"`
}

type forecastResponse struct {
	Crop      string `json:"crop"`
	Forecasts []struct {
		Market      string `json:"market"`
		County      string `json:"county"`
		Predictions []struct {
			Date  string  `json:"date"`
			Price float64 `json:"price"`
		} `json:"predictions"`
	} `json:"forecasts"`
}

// HTTPClient calls a forecasting service over HTTP:
//
//	POST {baseURL}/forecast {"crop","market","days"}
//	-> {"crop", "forecasts":[{"market","county","predictions":[{"date","price"}]}]}
//
// A 404 means no trained model and maps to ErrNoForecast. Transport errors,
// 5xx responses and breaker rejections map to ErrProviderUnavailable.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	breaker *breaker.Breaker
}

// NewHTTPClient creates a client. timeout bounds each request.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: breaker.New("forecast-api"),
	}
}

// fetchResult separates "no model" from a failed call so the breaker only
// counts real failures.
type fetchResult struct {
	points     []Point
	noForecast bool
}

// Forecast implements Provider.
func (c *HTTPClient) Forecast(ctx context.Context, crop, market string, horizonDays int) ([]Point, error) {
	res, err := breaker.Do(c.breaker, func() (fetchResult, error) {
		return c.fetch(ctx, crop, market, horizonDays)
	})
	metrics.RecordForecast(err)

	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if res.noForecast {
		return nil, ErrNoForecast
	}
	return res.points, nil
}

func (c *HTTPClient) fetch(ctx context.Context, crop, market string, days int) (fetchResult, error) {
	body, err := json.Marshal(forecastRequest{Crop: strings.ToLower(crop), Market: market, Days: days})
	if err != nil {
		return fetchResult{}, fmt.Errorf("encode forecast request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forecast", bytes.NewReader(body))
	if err != nil {
		return fetchResult{}, fmt.Errorf("create forecast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fetchResult{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return fetchResult{noForecast: true}, nil
	case resp.StatusCode >= 500:
		return fetchResult{}, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fetchResult{}, fmt.Errorf("forecast service returned status %d", resp.StatusCode)
	}

	var decoded forecastResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&decoded); err != nil {
		return fetchResult{}, fmt.Errorf("decode forecast response: %w", err)
	}

	for _, f := range decoded.Forecasts {
		if !strings.EqualFold(strings.TrimSpace(f.Market), strings.TrimSpace(market)) {
			continue
		}
		points := make([]Point, 0, len(f.Predictions))
		for _, p := range f.Predictions {
			d, err := time.Parse("2006-01-02", p.Date)
			if err != nil {
				return fetchResult{}, fmt.Errorf("forecast date %q: %w", p.Date, err)
			}
			points = append(points, Point{Date: d, Price: p.Price})
		}
		return fetchResult{points: points}, nil
	}
	return fetchResult{noForecast: true}, nil
}
