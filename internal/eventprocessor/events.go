// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package eventprocessor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/skysurvey/internal/telemetry"
)

// SchemaVersion is bumped whenever the envelope shape changes.
const SchemaVersion = 1

// MissionEvent is the envelope written to JetStream for every mirrored
// runner event. Payload holds the live channel frame unchanged.
type MissionEvent struct {
	EventID       string          `json:"event_id"`
	SchemaVersion int             `json:"schema_version"`
	MissionID     int64           `json:"mission_id"`
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewMissionEvent wraps a runner event. The envelope timestamp is the
// event's own timestamp when it carries one.
func NewMissionEvent(missionID int64, event telemetry.Event) (*MissionEvent, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event.Kind(), err)
	}

	var ts time.Time
	switch e := event.(type) {
	case telemetry.TelemetrySample:
		ts = e.Timestamp
	case telemetry.DetectionEvent:
		ts = e.Timestamp
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	return &MissionEvent{
		EventID:       uuid.NewString(),
		SchemaVersion: SchemaVersion,
		MissionID:     missionID,
		Type:          event.Kind(),
		Payload:       payload,
		Timestamp:     ts.UTC(),
	}, nil
}

// Validate checks the fields a consumer relies on.
func (e *MissionEvent) Validate() error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	case e.MissionID <= 0:
		return fmt.Errorf("%w: mission_id must be positive", ErrInvalidEvent)
	case e.Type != telemetry.EventTypeTelemetry && e.Type != telemetry.EventTypeDetection:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	case len(e.Payload) == 0:
		return fmt.Errorf("%w: payload is required", ErrInvalidEvent)
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEvent)
	}
	return nil
}

// Subject returns the JetStream subject, e.g. "missions.42.detection".
func (e *MissionEvent) Subject(prefix string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + "." + strconv.FormatInt(e.MissionID, 10) + "." + e.Type
}
