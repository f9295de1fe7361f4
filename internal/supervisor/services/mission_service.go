// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package services

import (
	"context"

	"github.com/tomtom215/skysurvey/internal/logging"
)

// MissionRunner is the mission manager as seen by the supervisor.
type MissionRunner interface {
	Serve(ctx context.Context) error
	ActiveMissions() []int64
}

// MissionManagerService keeps the mission manager in the data layer. On
// shutdown the manager stops every running mission and marks it stopped.
type MissionManagerService struct {
	manager MissionRunner
}

// NewMissionManagerService wraps manager.
func NewMissionManagerService(manager MissionRunner) *MissionManagerService {
	return &MissionManagerService{manager: manager}
}

// Serve implements suture.Service.
func (m *MissionManagerService) Serve(ctx context.Context) error {
	err := m.manager.Serve(ctx)
	if left := m.manager.ActiveMissions(); len(left) > 0 {
		logging.Warn().
			Ints64("mission_ids", left).
			Msg("missions still active after manager stopped")
	}
	return err
}

func (m *MissionManagerService) String() string {
	return "mission-manager"
}
