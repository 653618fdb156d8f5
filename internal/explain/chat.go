// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package explain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/tomtom215/agrimarket/internal/breaker"
)

// Gemini's OpenAI-compatible endpoint and default model.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-1.5-flash"
)

// ChatConfig configures a ChatExplainer.
type ChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	// Timeout bounds the HTTP exchange. Callers usually add their own
	// context deadline as well.
	Timeout time.Duration

	// RequestsPerMinute limits outbound calls. Zero disables the limiter.
	RequestsPerMinute int

	MaxTokens   int
	Temperature float32
}

// ChatExplainer asks a chat completion model for the explanation.
type ChatExplainer struct {
	client  *openai.Client
	model   string
	cfg     ChatConfig
	limiter *rate.Limiter
	breaker *breaker.Breaker
}

// NewChatExplainer creates a ChatExplainer. An API key is required.
func NewChatExplainer(cfg ChatConfig) (*ChatExplainer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("explainer API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 600
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	e := &ChatExplainer{
		client:  openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		cfg:     cfg,
		breaker: breaker.New("explainer"),
	}
	if cfg.RequestsPerMinute > 0 {
		e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}
	return e, nil
}

// Model returns the configured model name.
func (e *ChatExplainer) Model() string {
	return e.model
}

// Explain implements Explainer.
func (e *ChatExplainer) Explain(ctx context.Context, c *Context) (string, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limited: %v", ErrExplainerUnavailable, err)
		}
	}

	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(c)},
		},
		MaxTokens:   e.cfg.MaxTokens,
		N:           1,
		Temperature: e.cfg.Temperature,
	}

	text, err := breaker.Do(e.breaker, func() (string, error) {
		resp, err := e.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("empty choices")
		}
		out := strings.TrimSpace(resp.Choices[0].Message.Content)
		if out == "" {
			return "", errors.New("empty content")
		}
		return out, nil
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d: %s", ErrExplainerUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %v", ErrExplainerUnavailable, err)
	}
	return text, nil
}
