// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package mission

import (
	"context"
	"errors"

	"github.com/tomtom215/skysurvey/internal/models"
	"github.com/tomtom215/skysurvey/internal/telemetry"
)

var (
	// ErrMissionNotFound is returned when starting a mission the store does
	// not know about. Store implementations wrap it.
	ErrMissionNotFound = errors.New("mission not found")

	// ErrManagerClosed is returned by StartMission after Shutdown.
	ErrManagerClosed = errors.New("mission manager is shut down")
)

// Session is a mission-scoped persistence handle held by a runner for its
// whole lifetime. Implementations must not hold scarce resources such as
// pooled connections between calls.
type Session interface {
	AppendDetection(ctx context.Context, det telemetry.DetectionEvent) (models.Detection, error)
	Close() error
}

// Store is the persistence a runner needs.
type Store interface {
	AcquireSession(ctx context.Context, missionID int64) (Session, error)
	GetMissionStatus(ctx context.Context, missionID int64) (string, error)
	UpdateMissionStatus(ctx context.Context, missionID int64, status string) error
}

// Broadcaster delivers events to live channel subscribers. Publish must not
// block on slow consumers.
type Broadcaster interface {
	Publish(missionID int64, event telemetry.Event)
}

// SourceFactory builds the telemetry source for one runner.
type SourceFactory func(missionID int64) telemetry.Source
