// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/skysurvey/internal/models"
)

const healthPingTimeout = 2 * time.Second

func (h *Handler) healthStatus(ctx context.Context) models.HealthStatus {
	pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	dbErr := h.store.Ping(pingCtx)

	status := "healthy"
	if dbErr != nil {
		status = "degraded"
	}
	natsUp := false
	if h.natsUp != nil {
		natsUp = h.natsUp()
	}
	return models.HealthStatus{
		Status:            status,
		Version:           h.version,
		DatabaseDriver:    h.store.Driver(),
		DatabaseConnected: dbErr == nil,
		ActiveMissions:    len(h.missions.ActiveMissions()),
		LiveSubscribers:   h.hub.TotalSubscribers(),
		NATSEnabled:       natsUp,
		Uptime:            time.Since(h.startTime).Seconds(),
		Timestamp:         time.Now().UTC(),
	}
}

// Health reports database connectivity and live mission counts. It answers
// 200 even when degraded so dashboards can read the body.
//
// Method: GET
// Path: /api/v1/health
//
// @Summary Service health
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, h.healthStatus(r.Context()))
}

// HealthLive reports liveness: the process is serving requests.
//
// Method: GET
// Path: /api/v1/health/live
//
// @Summary Liveness
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady reports readiness: 503 until the database answers.
//
// Method: GET
// Path: /api/v1/health/ready
//
// @Summary Readiness
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := h.healthStatus(r.Context())
	if !status.DatabaseConnected {
		respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeUnavailable, "Database not reachable", nil)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{"ready": true})
}
