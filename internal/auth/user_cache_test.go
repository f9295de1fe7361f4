// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type countingUsers struct {
	fakeUsers
	calls atomic.Int64
}

func (c *countingUsers) UserExists(ctx context.Context, id int64) (bool, error) {
	c.calls.Add(1)
	return c.fakeUsers.UserExists(ctx, id)
}

func TestCachedUserLookup(t *testing.T) {
	t.Parallel()

	backing := &countingUsers{fakeUsers: fakeUsers{1: true, 500: true}}
	lookup := NewCachedUserLookup(backing, 0, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := lookup.UserExists(ctx, 1)
		if err != nil || !ok {
			t.Fatalf("UserExists(1) = %v, %v", ok, err)
		}
	}
	if got := backing.calls.Load(); got != 1 {
		t.Errorf("backing calls for a known user = %d, want 1", got)
	}

	for i := 0; i < 2; i++ {
		if ok, _ := lookup.UserExists(ctx, 2); ok {
			t.Fatal("UserExists(2) = true for unknown user")
		}
	}
	if got := backing.calls.Load(); got != 3 {
		t.Errorf("negative answers must not be cached: calls = %d, want 3", got)
	}

	if _, err := lookup.UserExists(ctx, 500); err == nil {
		t.Error("expected backing error to propagate")
	}

	lookup.Forget(1)
	_, _ = lookup.UserExists(ctx, 1)
	if got := backing.calls.Load(); got != 5 {
		t.Errorf("calls after Forget = %d, want 5", got)
	}

	s := lookup.Stats()
	if s.Hits != 2 {
		t.Errorf("Stats().Hits = %d, want 2", s.Hits)
	}
}

func TestCachedUserLookup_Middleware(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(t)
	backing := &countingUsers{fakeUsers: fakeUsers{1: true}}
	mw := NewMiddleware(m, NewCachedUserLookup(backing, 16, time.Minute))

	pair, err := m.GenerateTokenPair(1, "pilot@example.com")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		mw.Authenticate(principalEcho()).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	if got := backing.calls.Load(); got != 1 {
		t.Errorf("backing calls = %d, want 1", got)
	}
}
