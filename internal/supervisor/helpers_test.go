// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// testService runs until cancelled, failing its first failFirst starts.
type testService struct {
	name      string
	starts    atomic.Int32
	failFirst int32
}

func newTestService(name string) *testService {
	return &testService{name: name}
}

func (s *testService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.failFirst {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *testService) String() string { return s.name }

func waitUntil(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
