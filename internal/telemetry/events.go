// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

// Package telemetry produces the synthetic drone telemetry and detections that
// drive a simulated mission.
//
// A Generator has no shared state: every mission runner owns its own
// instance, so no locking is needed and tests can inject a seeded random
// source and a fixed clock.
package telemetry

import (
	"time"

	"github.com/goccy/go-json"
)

// Event type tags written into the "type" field on the live channel.
const (
	EventTypeTelemetry = "telemetry"
	EventTypeDetection = "detection"
)

// Event is implemented by everything a mission runner publishes.
type Event interface {
	Kind() string
	Mission() int64
}

// TelemetrySample is one position and battery reading. Samples are only
// published, never stored.
type TelemetrySample struct {
	MissionID  int64
	Lat        float64
	Lon        float64
	Alt        float64
	BatteryPct int
	Timestamp  time.Time
}

// Kind implements Event.
func (s TelemetrySample) Kind() string { return EventTypeTelemetry }

// Mission implements Event.
func (s TelemetrySample) Mission() int64 { return s.MissionID }

type telemetryWire struct {
	Type      string    `json:"type"`
	MissionID int64     `json:"mission_id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Alt       float64   `json:"alt"`
	Battery   int       `json:"battery"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalJSON writes the live channel shape.
func (s TelemetrySample) MarshalJSON() ([]byte, error) {
	return json.Marshal(telemetryWire{
		Type:      EventTypeTelemetry,
		MissionID: s.MissionID,
		Lat:       s.Lat,
		Lon:       s.Lon,
		Alt:       s.Alt,
		Battery:   s.BatteryPct,
		Timestamp: s.Timestamp,
	})
}

// UnmarshalJSON reads the live channel shape back.
func (s *TelemetrySample) UnmarshalJSON(data []byte) error {
	var w telemetryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = TelemetrySample{
		MissionID:  w.MissionID,
		Lat:        w.Lat,
		Lon:        w.Lon,
		Alt:        w.Alt,
		BatteryPct: w.Battery,
		Timestamp:  w.Timestamp,
	}
	return nil
}

// DetectionEvent is an object spotted during a mission. It is written once,
// persisted, and then published; it is never modified afterwards.
type DetectionEvent struct {
	MissionID int64
	Lat       float64
	Lon       float64
	Label     string
	Score     float64
	Timestamp time.Time
}

// Kind implements Event.
func (d DetectionEvent) Kind() string { return EventTypeDetection }

// Mission implements Event.
func (d DetectionEvent) Mission() int64 { return d.MissionID }

// The live channel shape carries no mission id; subscribers already know
// which mission they joined.
type detectionWire struct {
	Type      string    `json:"type"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Label     string    `json:"label"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalJSON writes the live channel shape.
func (d DetectionEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(detectionWire{
		Type:      EventTypeDetection,
		Lat:       d.Lat,
		Lon:       d.Lon,
		Label:     d.Label,
		Score:     d.Score,
		Timestamp: d.Timestamp,
	})
}
