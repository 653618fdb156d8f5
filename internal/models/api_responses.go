// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package models

import (
	"time"
)

// Error codes returned in APIError.Code.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeRateLimited        = "RATE_LIMITED"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
//
// Example successful response:
//
//	{
//	  "success": true,
//	  "data": {"candidates": [...], "no_data": false},
//	  "meta": {"timestamp": "2026-03-02T08:00:00Z", "request_id": "...", "query_time_ms": 4}
//	}
//
// Example error response:
//
//	{
//	  "success": false,
//	  "data": null,
//	  "error": {"code": "VALIDATION_ERROR", "message": "crop must not be blank", "details": {"field": "crop"}},
//	  "meta": {"timestamp": "2026-03-02T08:00:00Z"}
//	}
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    Metadata    `json:"meta"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Fields:
//   - Code: Machine-readable error code (e.g., "VALIDATION_ERROR", "INVALID_INPUT")
//   - Message: Human-readable error message
//   - Details: Additional context (field names, constraints, etc.)
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
