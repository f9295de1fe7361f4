// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateIDs(t *testing.T) {
	t.Parallel()

	if got := len(GenerateCorrelationID()); got != 8 {
		t.Errorf("correlation id length = %d, want 8", got)
	}
	if got := len(GenerateRequestID()); got != 36 {
		t.Errorf("request id length = %d, want 36", got)
	}
	if GenerateRequestID() == GenerateRequestID() {
		t.Error("request ids should be unique")
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" {
		t.Fatal("empty context should carry no ids")
	}
	if _, ok := MissionIDFromContext(ctx); ok {
		t.Fatal("empty context should carry no mission id")
	}

	ctx = ContextWithCorrelationID(ctx, "abc12345")
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithMissionID(ctx, 42)

	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("correlation id = %q", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("request id = %q", got)
	}
	if got, ok := MissionIDFromContext(ctx); !ok || got != 42 {
		t.Errorf("mission id = %d, %v", got, ok)
	}
}

func TestCtxAddsFields(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { Init(DefaultConfig()) })

	ctx := ContextWithNewCorrelationID(context.Background())
	ctx = ContextWithRequestID(ctx, "req-9")
	ctx = ContextWithMissionID(ctx, 3)

	Ctx(ctx).Info().Msg("tick")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-9"`, `"mission_id":3`, `"correlation_id":"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestCtxWithoutValues(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { Init(DefaultConfig()) })

	Ctx(context.Background()).Info().Msg("plain")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("unexpected request_id in %s", buf.String())
	}
}
