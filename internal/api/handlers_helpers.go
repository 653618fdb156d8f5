// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/agrimarket/internal/logging"
	"github.com/tomtom215/agrimarket/internal/models"
	"github.com/tomtom215/agrimarket/internal/prices"
	"github.com/tomtom215/agrimarket/internal/recommend"
	"github.com/tomtom215/agrimarket/internal/validation"
)

// maxBodyBytes bounds request bodies. A year of daily forecast points is well
// under this.
const maxBodyBytes = 1 << 20

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a successful response in the standard envelope.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}, start time.Time) {
	meta := models.Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
	if !start.IsZero() {
		meta.QueryTimeMS = time.Since(start).Milliseconds()
	}
	writeEnvelope(w, status, &models.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// respondError sends an error response
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	respondAPIError(w, r, status, &models.APIError{Code: code, Message: message}, err)
}

func respondAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", sanitizeLogValue(apiErr.Code)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
	}

	writeEnvelope(w, status, &models.APIResponse{
		Success: false,
		Data:    nil,
		Error:   apiErr,
		Meta: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}

func writeEnvelope(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// decodeJSON reads a bounded JSON body into dst and rejects unknown fields.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			respondError(w, r, http.StatusRequestEntityTooLarge, models.ErrCodeBadRequest, "Request body too large", nil)
		case errors.Is(err, io.EOF):
			respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, "Request body is required", nil)
		default:
			respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, "Invalid JSON body: "+sanitizeLogValue(err.Error()), nil)
		}
		return false
	}
	return true
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or a models.APIError if validation fails.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// respondServiceError maps domain errors to HTTP responses.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidInput):
		respondError(w, r, http.StatusBadRequest, models.ErrCodeInvalidInput, err.Error(), nil)
	case errors.Is(err, prices.ErrNoSnapshot):
		respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable, "Market prices are not loaded yet", err)
	default:
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Internal server error", err)
	}
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
