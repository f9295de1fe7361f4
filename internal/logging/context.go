// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	missionIDKey     contextKey = "mission_id"
)

// GenerateCorrelationID returns a short id for joining log lines of one
// background operation, such as a mission run.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// GenerateRequestID returns a full UUID for an inbound HTTP request.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithCorrelationID stores id on ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID stores a freshly generated correlation id on ctx.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns "" when no id is set.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// ContextWithRequestID stores the HTTP request id on ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns "" when no id is set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithMissionID tags ctx with the mission being operated on.
func ContextWithMissionID(ctx context.Context, missionID int64) context.Context {
	return context.WithValue(ctx, missionIDKey, missionID)
}

// MissionIDFromContext reports the mission id stored on ctx, if any.
func MissionIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(missionIDKey).(int64)
	return id, ok
}

// Ctx returns the global logger enriched with whatever ids ctx carries.
//
//	logging.Ctx(ctx).Info().Msg("journey created")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := CtxWith(ctx).Logger()
	return &l
}

// CtxWith is like Ctx but leaves the context open for more fields.
func CtxWith(ctx context.Context) zerolog.Context {
	c := With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		c = c.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		c = c.Str("request_id", id)
	}
	if id, ok := MissionIDFromContext(ctx); ok {
		c = c.Int64("mission_id", id)
	}
	return c
}
