// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package mission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/skysurvey/internal/config"
	"github.com/tomtom215/skysurvey/internal/models"
	"github.com/tomtom215/skysurvey/internal/telemetry"
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu         sync.Mutex
	statuses   map[int64]string
	history    map[int64][]string
	detections []telemetry.DetectionEvent
	acquireErr error
	appendErr  error
	// appendDelay simulates a slow write that ignores cancellation.
	appendDelay time.Duration
	// rowHook rewrites the returned row, as a database does with defaults.
	rowHook  func(*models.Detection)
	sessions int
	closed   int
}

func newFakeStore(ids ...int64) *fakeStore {
	s := &fakeStore{
		statuses: make(map[int64]string),
		history:  make(map[int64][]string),
	}
	for _, id := range ids {
		s.statuses[id] = models.MissionStatusCreated
	}
	return s
}

func (s *fakeStore) AcquireSession(_ context.Context, missionID int64) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	s.sessions++
	return &fakeSession{store: s}, nil
}

func (s *fakeStore) GetMissionStatus(_ context.Context, missionID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.statuses[missionID]
	if !ok {
		return "", fmt.Errorf("mission %d: %w", missionID, ErrMissionNotFound)
	}
	return status, nil
}

func (s *fakeStore) UpdateMissionStatus(_ context.Context, missionID int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[missionID] = status
	s.history[missionID] = append(s.history[missionID], status)
	return nil
}

func (s *fakeStore) status(missionID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[missionID]
}

func (s *fakeStore) detectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.detections)
}

func (s *fakeStore) openSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions - s.closed
}

type fakeSession struct {
	store *fakeStore
	once  sync.Once
}

func (f *fakeSession) AppendDetection(_ context.Context, det telemetry.DetectionEvent) (models.Detection, error) {
	f.store.mu.Lock()
	delay := f.store.appendDelay
	f.store.mu.Unlock()
	time.Sleep(delay)

	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if f.store.appendErr != nil {
		return models.Detection{}, f.store.appendErr
	}
	f.store.detections = append(f.store.detections, det)
	score := det.Score
	row := models.Detection{
		ID:        int64(len(f.store.detections)),
		MissionID: det.MissionID,
		Lat:       det.Lat,
		Lon:       det.Lon,
		Label:     det.Label,
		Score:     &score,
		CreatedAt: det.Timestamp,
	}
	if f.store.rowHook != nil {
		f.store.rowHook(&row)
	}
	return row, nil
}

func (f *fakeSession) Close() error {
	f.once.Do(func() {
		f.store.mu.Lock()
		f.store.closed++
		f.store.mu.Unlock()
	})
	return nil
}

// recordingBus captures published events.
type recordingBus struct {
	mu     sync.Mutex
	events []telemetry.Event
	notify chan struct{}
}

func newRecordingBus() *recordingBus {
	return &recordingBus{notify: make(chan struct{}, 1024)}
}

func (b *recordingBus) Publish(_ int64, event telemetry.Event) {
	b.mu.Lock()
	b.events = append(b.events, event)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *recordingBus) snapshot() []telemetry.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]telemetry.Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *recordingBus) count(kind string) int {
	n := 0
	for _, e := range b.snapshot() {
		if e.Kind() == kind {
			n++
		}
	}
	return n
}

func (b *recordingBus) waitFor(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for len(b.snapshot()) < n {
		select {
		case <-b.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, have %d", n, len(b.snapshot()))
		}
	}
}

// scriptedSource emits a detection on every tick when detect is set, and
// panics on the ticks listed in panicOn.
type scriptedSource struct {
	mu      sync.Mutex
	detect  bool
	panicOn map[int]bool
	n       int
}

func (s *scriptedSource) Generate(missionID int64) (telemetry.TelemetrySample, *telemetry.DetectionEvent) {
	s.mu.Lock()
	s.n++
	n := s.n
	s.mu.Unlock()

	if s.panicOn[n] {
		panic(errors.New("sensor glitch"))
	}
	ts := time.Now().UTC()
	sample := telemetry.TelemetrySample{MissionID: missionID, Lat: 48.2, Lon: 16.37, Alt: 10, BatteryPct: 80, Timestamp: ts}
	if !s.detect {
		return sample, nil
	}
	return sample, &telemetry.DetectionEvent{MissionID: missionID, Lat: 48.2, Lon: 16.37, Label: "plastic", Score: 0.9, Timestamp: ts}
}

func testMissionConfig(interval time.Duration, budget int) config.MissionConfig {
	return config.MissionConfig{
		TickInterval: interval,
		TickBudget:   budget,
		Simulation: config.SimulationConfig{
			BaseLat:              48.2,
			BaseLon:              16.37,
			BaseAlt:              10,
			CoordJitter:          0.001,
			AltJitter:            1,
			BatteryMin:           50,
			BatteryMax:           100,
			DetectionProbability: 0.1,
			DetectionLabel:       "plastic",
			ScoreMin:             0.70,
			ScoreMax:             0.98,
		},
	}
}

func waitDone(t *testing.T, r *Runner) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("runner did not exit")
	}
}

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout: %s", msg)
}
