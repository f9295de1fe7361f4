// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package api

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/skysurvey/internal/models"
)

// SignupRequest registers a new account.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest carries credentials. Username is accepted as an alias of
// Email for OAuth2 password-flow clients.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) identity() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// WaypointRequest is one journey point. Seq defaults to the point's index.
type WaypointRequest struct {
	Seq *int     `json:"seq" validate:"omitempty,gte=0"`
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lon *float64 `json:"lon" validate:"required,longitude"`
	Alt *float64 `json:"alt,omitempty"`
}

// JourneyCreateRequest creates a journey with its ordered points.
type JourneyCreateRequest struct {
	Name        string            `json:"name" validate:"notblank,max=200"`
	Description *string           `json:"description,omitempty" validate:"omitempty,max=2000"`
	Points      []WaypointRequest `json:"points" validate:"min=2,uniqueseq,dive"`
}

// fillSeq assigns the index to points that omit seq. Run before validation
// so duplicates against explicit values are caught.
func (r *JourneyCreateRequest) fillSeq() {
	for i := range r.Points {
		if r.Points[i].Seq == nil {
			seq := i
			r.Points[i].Seq = &seq
		}
	}
}

func (r *JourneyCreateRequest) waypoints() []models.Waypoint {
	out := make([]models.Waypoint, len(r.Points))
	for i, p := range r.Points {
		out[i] = models.Waypoint{Seq: *p.Seq, Lat: *p.Lat, Lon: *p.Lon, Alt: p.Alt}
	}
	return out
}

// MissionCreateRequest creates a mission for an owned journey and optionally
// starts it.
type MissionCreateRequest struct {
	JourneyID int64 `json:"journey_id" validate:"required,gt=0"`
	Start     bool  `json:"start"`
}

// CommandRequest is an operator command for a running mission.
type CommandRequest struct {
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// DetectionCreateRequest records a detection reported outside a runner.
type DetectionCreateRequest struct {
	MissionID int64    `json:"mission_id" validate:"required,gt=0"`
	Lat       *float64 `json:"lat" validate:"required,latitude"`
	Lon       *float64 `json:"lon" validate:"required,longitude"`
	Label     string   `json:"label" validate:"notblank,max=100"`
	Score     *float64 `json:"score,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// MissionView is a mission with its live state.
type MissionView struct {
	models.Mission
	Subscribers int `json:"subscribers"`
}

// DetailResponse is a plain acknowledgement.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// MissionListQuery is the parsed query string of GET /missions.
type MissionListQuery struct {
	Statuses []string  `json:"status" validate:"dive,oneof=created running completed stopped failed"`
	Since    *time.Time `json:"since"`
	Limit    int        `json:"limit" validate:"gte=0,lte=500"`
}

func (q MissionListQuery) filter() models.MissionFilter {
	return models.MissionFilter{Statuses: q.Statuses, Since: q.Since, Limit: q.Limit}
}

// parseMissionListQuery reads status (repeated or comma separated), since
// (RFC 3339) and limit.
func parseMissionListQuery(values url.Values) (MissionListQuery, error) {
	var q MissionListQuery
	for _, raw := range values["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				q.Statuses = append(q.Statuses, s)
			}
		}
	}
	if raw := values.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, errors.New("since must be an RFC 3339 timestamp")
		}
		q.Since = &since
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.New("limit must be an integer")
		}
		q.Limit = limit
	}
	return q, nil
}
