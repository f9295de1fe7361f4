// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package eventprocessor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/skysurvey/internal/metrics"
	"github.com/tomtom215/skysurvey/internal/telemetry"
)

type localRecorder struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (l *localRecorder) Publish(_ int64, event telemetry.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *localRecorder) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// fakePublisher records envelopes. When block is non-nil each publish waits
// on it first.
type fakePublisher struct {
	mu     sync.Mutex
	events []*MissionEvent
	err    error
	block  chan struct{}
}

func (p *fakePublisher) PublishEvent(ctx context.Context, event *MissionEvent) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []*MissionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*MissionEvent(nil), p.events...)
}

func sample(missionID int64) telemetry.TelemetrySample {
	return telemetry.TelemetrySample{MissionID: missionID, Lat: 37.7, Lon: -122.4, Alt: 100, BatteryPct: 90, Timestamp: testTime}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout: %s", msg)
}

func startForwarder(t *testing.T, f *Forwarder) (cancel func() error) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Serve(ctx) }()
	waitFor(t, f.Healthy, "forwarder never started")
	return func() error {
		stop()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("forwarder did not stop")
			return nil
		}
	}
}

func TestNewForwarderRequiresCollaborators(t *testing.T) {
	if _, err := NewForwarder(nil, &fakePublisher{}, ForwarderConfig{}); err == nil {
		t.Error("nil local broadcaster should fail")
	}
	if _, err := NewForwarder(&localRecorder{}, nil, ForwarderConfig{}); err == nil {
		t.Error("nil publisher should fail")
	}
	f, err := NewForwarder(&localRecorder{}, &fakePublisher{}, ForwarderConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if cap(f.queue) != DefaultForwarderConfig().QueueSize {
		t.Errorf("queue cap = %d", cap(f.queue))
	}
	if f.String() != "nats-forwarder" {
		t.Errorf("String() = %q", f.String())
	}
}

func TestForwarderMirrorsEvents(t *testing.T) {
	local := &localRecorder{}
	pub := &fakePublisher{}
	f, err := NewForwarder(local, pub, ForwarderConfig{QueueSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	stop := startForwarder(t, f)

	success := testutil.ToFloat64(metrics.NATSPublishTotal.WithLabelValues("success"))

	f.Publish(5, sample(5))
	f.Publish(5, telemetry.DetectionEvent{MissionID: 5, Label: "anomaly", Score: 0.8, Timestamp: testTime})

	waitFor(t, func() bool { return len(pub.published()) == 2 }, "events not mirrored")
	if err := stop(); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}

	if local.count() != 2 {
		t.Errorf("local deliveries = %d, want 2", local.count())
	}
	got := pub.published()
	if got[0].Type != telemetry.EventTypeTelemetry || got[1].Type != telemetry.EventTypeDetection {
		t.Errorf("mirror order = %s, %s", got[0].Type, got[1].Type)
	}
	if got[0].MissionID != 5 {
		t.Errorf("mission id = %d", got[0].MissionID)
	}
	if s := f.Stats(); s.Forwarded != 2 || s.Failed != 0 || s.Dropped != 0 {
		t.Errorf("stats = %+v", s)
	}
	if d := testutil.ToFloat64(metrics.NATSPublishTotal.WithLabelValues("success")) - success; d != 2 {
		t.Errorf("success metric delta = %v, want 2", d)
	}
	if f.Healthy() {
		t.Error("forwarder should report unhealthy after stopping")
	}
}

func TestForwarderFullQueueDropsMirrorOnly(t *testing.T) {
	local := &localRecorder{}
	f, err := NewForwarder(local, &fakePublisher{}, ForwarderConfig{QueueSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	dropped := testutil.ToFloat64(metrics.NATSForwardDropped)

	for i := 0; i < 3; i++ {
		f.Publish(1, sample(1))
	}

	if local.count() != 3 {
		t.Errorf("local deliveries = %d, want 3", local.count())
	}
	if s := f.Stats(); s.Dropped != 2 || s.Queued != 1 {
		t.Errorf("stats = %+v", s)
	}
	if d := testutil.ToFloat64(metrics.NATSForwardDropped) - dropped; d != 2 {
		t.Errorf("dropped metric delta = %v, want 2", d)
	}
}

func TestForwarderPublishNeverBlocks(t *testing.T) {
	pub := &fakePublisher{block: make(chan struct{})}
	f, err := NewForwarder(&localRecorder{}, pub, ForwarderConfig{QueueSize: 4, PublishTimeout: time.Second, DrainTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	stop := startForwarder(t, f)
	defer func() { _ = stop() }()

	start := time.Now()
	for i := 0; i < 100; i++ {
		f.Publish(2, sample(2))
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("100 publishes took %v with a stuck broker", elapsed)
	}
	close(pub.block)
}

func TestForwarderCountsFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result string
	}{
		{"broker error", errors.New("nats: no responders"), "failure"},
		{"breaker open", gobreaker.ErrOpenState, "rejected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{err: tt.err}
			f, err := NewForwarder(&localRecorder{}, pub, ForwarderConfig{QueueSize: 4})
			if err != nil {
				t.Fatal(err)
			}
			counter := metrics.NATSPublishTotal.WithLabelValues(tt.result)
			before := testutil.ToFloat64(counter)

			stop := startForwarder(t, f)
			f.Publish(3, sample(3))
			waitFor(t, func() bool { return f.Stats().Failed == 1 }, "failure not counted")
			_ = stop()

			if d := testutil.ToFloat64(counter) - before; d != 1 {
				t.Errorf("%s metric delta = %v, want 1", tt.result, d)
			}
		})
	}
}

func TestForwarderDrainsOnShutdown(t *testing.T) {
	pub := &fakePublisher{}
	f, err := NewForwarder(&localRecorder{}, pub, ForwarderConfig{QueueSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		f.Publish(4, sample(4))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v", err)
	}
	if n := len(pub.published()); n != 5 {
		t.Errorf("drained %d events, want 5", n)
	}
	if f.Stats().Queued != 0 {
		t.Errorf("queue not empty after drain")
	}
}

func TestForwarderDrainGivesUp(t *testing.T) {
	pub := &fakePublisher{block: make(chan struct{})}
	f, err := NewForwarder(&localRecorder{}, pub, ForwarderConfig{QueueSize: 8, DrainTimeout: 30 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		f.Publish(4, sample(4))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	_ = f.Serve(ctx)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("drain took %v, want it bounded by DrainTimeout", elapsed)
	}
	if len(pub.published()) != 0 {
		t.Error("blocked publisher should not have accepted events")
	}
}
