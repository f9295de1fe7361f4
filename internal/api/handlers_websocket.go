// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package api

import (
	"net/http"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/websocket"
)

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() gws.Upgrader {
	return gws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates the Origin of browser upgrades against
// websocket.allowed_origins, falling back to the CORS origins. Requests
// without an Origin come from ground-station tools, not browsers; they still
// need a bearer token.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	allowed := h.cfg.WebSocket.AllowedOrigins
	if len(allowed) == 0 {
		allowed = h.cfg.Server.CORSOrigins
	}
	for _, allowedOrigin := range allowed {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// MissionWebSocket upgrades to the live channel of one mission. Ownership is
// checked before the upgrade so failures are still JSON responses.
//
// Method: GET
// Path: /api/v1/missions/ws/{id}
//
// @Summary Live mission channel
// @Tags Realtime
// @Param id path int true "Mission ID"
// @Param token query string false "Access token for clients that cannot set headers"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /missions/ws/{id} [get]
func (h *Handler) MissionWebSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := h.ownedMission(w, r, id); !ok {
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Int64("mission_id", id).Msg("WebSocket upgrade error")
		return
	}

	client := websocket.NewClient(h.hub.Subscribe(id), conn, websocket.ClientConfig{
		WriteWait:      h.cfg.WebSocket.WriteWait,
		PongWait:       h.cfg.WebSocket.PongWait,
		MaxMessageSize: h.cfg.WebSocket.MaxMessageSize,
	})
	client.Start()
	logging.Ctx(r.Context()).Debug().Int64("mission_id", id).Msg("live channel opened")
}
