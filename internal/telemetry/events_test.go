// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package telemetry

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestTelemetrySampleJSON(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	s := TelemetrySample{MissionID: 7, Lat: 48.2005, Lon: 16.3695, Alt: 10.4, BatteryPct: 88, Timestamp: ts}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := map[string]any{
		"type":       "telemetry",
		"mission_id": float64(7),
		"lat":        48.2005,
		"lon":        16.3695,
		"alt":        10.4,
		"battery":    float64(88),
		"timestamp":  "2026-05-04T10:30:00Z",
	}
	if len(m) != len(want) {
		t.Fatalf("got keys %v, want %v", m, want)
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %v, want %v", k, m[k], v)
		}
	}

	var back TelemetrySample
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal(TelemetrySample) error = %v", err)
	}
	if back.MissionID != 7 || back.BatteryPct != 88 || !back.Timestamp.Equal(ts) {
		t.Errorf("decoded %+v", back)
	}
}

func TestDetectionEventJSON(t *testing.T) {
	t.Parallel()

	d := DetectionEvent{MissionID: 7, Lat: 48.2, Lon: 16.37, Label: "plastic", Score: 0.873, Timestamp: time.Unix(0, 0).UTC()}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"type":"detection"`) || !strings.Contains(out, `"score":0.873`) {
		t.Errorf("unexpected JSON %s", out)
	}
	if strings.Contains(out, "mission_id") {
		t.Errorf("detection payload should not carry mission_id: %s", out)
	}
}

func TestEventInterface(t *testing.T) {
	t.Parallel()

	var events = []Event{TelemetrySample{MissionID: 1}, DetectionEvent{MissionID: 2}}
	if events[0].Kind() != EventTypeTelemetry || events[0].Mission() != 1 {
		t.Error("telemetry sample does not report kind/mission")
	}
	if events[1].Kind() != EventTypeDetection || events[1].Mission() != 2 {
		t.Error("detection does not report kind/mission")
	}
}
