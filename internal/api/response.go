// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skysurvey/internal/database"
	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/mission"
	"github.com/tomtom215/skysurvey/internal/models"
	"github.com/tomtom215/skysurvey/internal/validation"
)

// sanitizeLogValue escapes control characters so client input cannot forge
// log lines.
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

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeBody(w, status, "application/json", data)
}

// writeBody writes an encoded body with an ETag. Responses are per-user, so
// nothing is cached by intermediaries.
func writeBody(w http.ResponseWriter, status int, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("ETag", generateETag(data))

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a simple ETag from data using FNV-1a hash
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return `"` + strconv.FormatUint(uint64(hash), 16) + `"`
}

func metadata(r *http.Request) models.Metadata {
	return models.Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

// respondData wraps data in a success envelope.
func respondData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: metadata(r),
	})
}

// respondError sends an error envelope. A non-nil err is logged, never
// returned to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	respondAPIError(w, r, status, &models.APIError{Code: code, Message: message}, err)
}

func respondAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError, err error) {
	if err != nil {
		event := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.
			Str("code", sanitizeLogValue(apiErr.Code)).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Data:     nil,
		Metadata: metadata(r),
		Error:    apiErr,
	})
}

// respondStoreError maps persistence and manager errors onto HTTP statuses.
// what names the record for not-found messages, e.g. "Mission".
func respondStoreError(w http.ResponseWriter, r *http.Request, what string, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, mission.ErrMissionNotFound):
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, what+" not found", nil)
	case errors.Is(err, database.ErrDuplicate):
		respondError(w, r, http.StatusConflict, models.ErrCodeConflict, what+" already exists", nil)
	case errors.Is(err, database.ErrInvalidInput):
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
	case errors.Is(err, mission.ErrManagerClosed):
		respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeUnavailable, "Server is shutting down", err)
	default:
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Internal server error", err)
	}
}

// validateRequest validates a struct using go-playground/validator and
// returns a VALIDATION_ERROR, or nil when v is valid.
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
