// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/skysurvey/internal/mission"
	"github.com/tomtom215/skysurvey/internal/models"
	"github.com/tomtom215/skysurvey/internal/telemetry"
)

var _ mission.Store = (*DB)(nil)

// Session is a mission-scoped persistence handle. It holds no connection:
// every write borrows one from the pool for the duration of the statement,
// so idle missions never starve REST handlers or other runners.
type Session struct {
	db        *DB
	missionID int64
	mu        sync.Mutex
	closed    bool
}

// AcquireSession opens a session for missionID. It fails when the database
// is unreachable, which the runner treats as a fatal startup error.
func (db *DB) AcquireSession(ctx context.Context, missionID int64) (mission.Session, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	if err := db.conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to open session for mission %d: %w", missionID, err)
	}
	return &Session{db: db, missionID: missionID}, nil
}

// AppendDetection stores a detection produced by the mission's runner.
func (s *Session) AppendDetection(ctx context.Context, det telemetry.DetectionEvent) (models.Detection, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return models.Detection{}, fmt.Errorf("session for mission %d is closed", s.missionID)
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	score := det.Score
	stored, err := s.db.insertDetection(ctx, s.db.conn, models.Detection{
		MissionID: s.missionID,
		Lat:       det.Lat,
		Lon:       det.Lon,
		Label:     det.Label,
		Score:     &score,
		CreatedAt: det.Timestamp,
	})
	if err != nil {
		return models.Detection{}, err
	}
	return *stored, nil
}

// Close ends the session. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
