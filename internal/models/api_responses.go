// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package models

import "time"

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example success response:
//
//	{
//	  "status": "success",
//	  "data": {"id": 3, "journey_id": 1, "status": "running"},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 2}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"},
//	  "error": {"code": "NOT_FOUND", "message": "Mission not found"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError represents an error response with structured error details.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes used in APIError.Code.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeRateLimited  = "TOO_MANY_REQUESTS"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
)

// HealthStatus is returned by the health endpoint.
type HealthStatus struct {
	Status            string    `json:"status"`
	Version           string    `json:"version"`
	DatabaseDriver    string    `json:"database_driver"`
	DatabaseConnected bool      `json:"database_connected"`
	ActiveMissions    int       `json:"active_missions"`
	LiveSubscribers   int       `json:"live_subscribers"`
	NATSEnabled       bool      `json:"nats_enabled"`
	Uptime            float64   `json:"uptime_seconds"`
	Timestamp         time.Time `json:"timestamp"`
}
