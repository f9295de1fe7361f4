// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package models

import "time"

// User is an account that owns journeys.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Waypoint is one ordered point of a journey. Seq defines the order; it is
// supplied by the client and not required to be contiguous.
type Waypoint struct {
	ID        int64    `json:"id,omitempty"`
	JourneyID int64    `json:"journey_id,omitempty"`
	Seq       int      `json:"seq" validate:"gte=0"`
	Lat       float64  `json:"lat" validate:"latitude"`
	Lon       float64  `json:"lon" validate:"longitude"`
	Alt       *float64 `json:"alt,omitempty"`
}

// Journey is a planned route.
type Journey struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	OwnerID     int64      `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	Waypoints   []Waypoint `json:"waypoints"`
}

// Mission status values.
const (
	MissionStatusCreated   = "created"
	MissionStatusRunning   = "running"
	MissionStatusCompleted = "completed"
	MissionStatusStopped   = "stopped"
	MissionStatusFailed    = "failed"
)

// MissionStatuses lists every valid mission status.
var MissionStatuses = []string{
	MissionStatusCreated,
	MissionStatusRunning,
	MissionStatusCompleted,
	MissionStatusStopped,
	MissionStatusFailed,
}

// MissionFilter narrows a mission listing. Zero values match everything.
type MissionFilter struct {
	Statuses []string
	Since    *time.Time
	Limit    int
}

// Mission is one execution of a journey.
type Mission struct {
	ID        int64     `json:"id"`
	JourneyID int64     `json:"journey_id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Active    bool      `json:"active"`
	OwnerID   int64     `json:"-"`
}

// Detection is a persisted object sighting.
type Detection struct {
	ID        int64     `json:"id"`
	MissionID int64     `json:"mission_id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Label     string    `json:"label"`
	Score     *float64  `json:"score,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
