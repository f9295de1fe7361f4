// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

//go:build nats

package eventprocessor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/skysurvey/internal/config"
)

type fakeStream struct{ jetstream.Stream }

type fakeJetStream struct {
	exists    bool
	lookupErr error
	createErr error
	created   *jetstream.StreamConfig
	updated   *jetstream.StreamConfig
}

func (f *fakeJetStream) Stream(_ context.Context, _ string) (jetstream.Stream, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if !f.exists {
		return nil, jetstream.ErrStreamNotFound
	}
	return fakeStream{}, nil
}

func (f *fakeJetStream) CreateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &cfg
	f.exists = true
	return fakeStream{}, nil
}

func (f *fakeJetStream) UpdateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.updated = &cfg
	return fakeStream{}, nil
}

func missionStreamConfig(t *testing.T) StreamConfig {
	t.Helper()
	cfg, err := ConfigFrom(&config.NATSConfig{StreamRetentionDays: 2})
	if err != nil {
		t.Fatal(err)
	}
	return cfg.Stream
}

func TestNewStreamInitializerValidation(t *testing.T) {
	cfg := missionStreamConfig(t)
	if _, err := NewStreamInitializer(nil, &cfg); err == nil {
		t.Error("nil JetStream should fail")
	}
	if _, err := NewStreamInitializer(&fakeJetStream{}, nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := NewStreamInitializer(&fakeJetStream{}, &StreamConfig{Name: "X"}); err == nil {
		t.Error("missing subjects should fail")
	}
}

func TestEnsureStreamCreatesThenUpdates(t *testing.T) {
	js := &fakeJetStream{}
	cfg := missionStreamConfig(t)
	si, err := NewStreamInitializer(js, &cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := si.EnsureStream(ctx); err != nil {
		t.Fatalf("first EnsureStream() error = %v", err)
	}
	if js.created == nil || js.updated != nil {
		t.Fatal("first call should create")
	}
	if js.created.Name != StreamName || js.created.Subjects[0] != "missions.>" {
		t.Errorf("created = %s %v", js.created.Name, js.created.Subjects)
	}
	if js.created.MaxAge != 48*time.Hour || js.created.Storage != jetstream.FileStorage {
		t.Errorf("created limits = %v %v", js.created.MaxAge, js.created.Storage)
	}
	if js.created.Duplicates != 2*time.Minute || js.created.Discard != jetstream.DiscardOld {
		t.Errorf("created dedupe/discard = %v %v", js.created.Duplicates, js.created.Discard)
	}

	if _, err := si.EnsureStream(ctx); err != nil {
		t.Fatalf("second EnsureStream() error = %v", err)
	}
	if js.updated == nil {
		t.Error("second call should update")
	}
	if !si.IsHealthy(ctx) {
		t.Error("IsHealthy() = false after creation")
	}
}

func TestEnsureStreamErrors(t *testing.T) {
	cfg := missionStreamConfig(t)
	lookup := errors.New("connection closed")

	si, _ := NewStreamInitializer(&fakeJetStream{lookupErr: lookup}, &cfg)
	if _, err := si.EnsureStream(context.Background()); !errors.Is(err, lookup) {
		t.Errorf("lookup failure = %v", err)
	}
	if si.IsHealthy(context.Background()) {
		t.Error("IsHealthy() should be false when lookups fail")
	}

	create := errors.New("insufficient resources")
	si, _ = NewStreamInitializer(&fakeJetStream{createErr: create}, &cfg)
	if _, err := si.EnsureStream(context.Background()); !errors.Is(err, create) {
		t.Errorf("create failure = %v", err)
	}
}
