// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// EventLogger logs the lifecycle of mirrored mission events.
type EventLogger struct {
	logger zerolog.Logger
}

// NewEventLogger creates an EventLogger on the global logger.
func NewEventLogger() *EventLogger {
	return &EventLogger{
		logger: With().Str("component", "eventprocessor").Logger(),
	}
}

// NewEventLoggerWithLogger creates an EventLogger writing to logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEventLoggerWithLogger(logger zerolog.Logger) *EventLogger {
	return &EventLogger{
		logger: logger.With().Str("component", "eventprocessor").Logger(),
	}
}

// Info logs an info message with key/value pairs.
func (e *EventLogger) Info(msg string, fields ...interface{}) {
	addFieldPairs(e.logger.Info(), fields).Msg(msg)
}

// Warn logs a warning with key/value pairs.
func (e *EventLogger) Warn(msg string, fields ...interface{}) {
	addFieldPairs(e.logger.Warn(), fields).Msg(msg)
}

// loggerWithContext adds request and mission identifiers found in ctx.
func (e *EventLogger) loggerWithContext(ctx context.Context) zerolog.Logger {
	logCtx := e.logger.With()
	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		logCtx = logCtx.Str("request_id", requestID)
	}
	if missionID, ok := MissionIDFromContext(ctx); ok {
		logCtx = logCtx.Int64("mission_id", missionID)
	}
	return logCtx.Logger()
}

// LogEventPublished logs a mission event accepted by JetStream.
func (e *EventLogger) LogEventPublished(ctx context.Context, eventID, subject string) {
	logger := e.loggerWithContext(ctx)
	logger.Debug().
		Str("event_id", eventID).
		Str("subject", subject).
		Msg("mission event mirrored")
}

// LogEventFailed logs a publish that the broker or the breaker refused.
func (e *EventLogger) LogEventFailed(ctx context.Context, eventID, subject string, err error) {
	logger := e.loggerWithContext(ctx)
	logger.Warn().
		Str("event_id", eventID).
		Str("subject", subject).
		Err(err).
		Msg("mission event mirror failed")
}

// LogEventDropped logs an event that never reached the forward queue.
func (e *EventLogger) LogEventDropped(ctx context.Context, eventType string, queueSize int) {
	logger := e.loggerWithContext(ctx)
	logger.Debug().
		Str("event_type", eventType).
		Int("queue_size", queueSize).
		Msg("forward queue full, mission event not mirrored")
}

// LogForwarderStarted logs the start of the mirror loop.
func (e *EventLogger) LogForwarderStarted(queueSize int) {
	e.Info("event forwarder started", "queue_size", queueSize)
}

// LogForwarderStopped logs the end of the mirror loop.
func (e *EventLogger) LogForwarderStopped(drained, abandoned int) {
	e.Info("event forwarder stopped", "drained", drained, "abandoned", abandoned)
}

// addFieldPairs appends alternating key/value pairs to e. Non-string keys
// and a trailing key without a value are skipped.
func addFieldPairs(e *zerolog.Event, fields []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, fields[i+1])
	}
	return e
}
