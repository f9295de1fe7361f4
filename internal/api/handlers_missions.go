// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/models"
)

func (h *Handler) view(m *models.Mission) MissionView {
	m.Active = h.missions.Active(m.ID)
	return MissionView{Mission: *m, Subscribers: h.hub.SubscriberCount(m.ID)}
}

// CreateMission creates a mission for one of the caller's journeys. With
// "start": true the runner is started before responding.
//
// Method: POST
// Path: /api/v1/missions
//
// @Summary Create a mission
// @Tags Missions
// @Accept json
// @Produce json
// @Param request body MissionCreateRequest true "Journey and optional immediate start"
// @Success 201 {object} models.APIResponse{data=MissionView}
// @Failure 400 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /missions [post]
func (h *Handler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var req MissionCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	if _, ok := h.ownedJourney(w, r, req.JourneyID); !ok {
		return
	}

	m, err := h.store.CreateMission(r.Context(), req.JourneyID)
	if err != nil {
		respondStoreError(w, r, "Mission", err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Int64("mission_id", m.ID).
		Int64("journey_id", m.JourneyID).
		Msg("mission created")

	if req.Start {
		if err := h.missions.StartMission(r.Context(), m.ID); err != nil {
			respondStoreError(w, r, "Mission", err)
			return
		}
	}
	respondData(w, r, http.StatusCreated, h.view(m))
}

// ListMissions returns the caller's missions, newest first. Optional query
// parameters status, since and limit narrow the result.
//
// Method: GET
// Path: /api/v1/missions
//
// @Summary List missions
// @Tags Missions
// @Produce json
// @Param status query string false "Status filter, repeatable"
// @Param since query string false "RFC3339 lower bound on created_at"
// @Param limit query int false "Maximum results, up to 500"
// @Success 200 {object} models.APIResponse{data=[]MissionView}
// @Failure 400 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Security BearerAuth
// @Router /missions [get]
func (h *Handler) ListMissions(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	q, err := parseMissionListQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(q); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	missions, err := h.store.ListMissions(r.Context(), p.UserID, q.filter())
	if err != nil {
		respondStoreError(w, r, "Mission", err)
		return
	}
	views := make([]MissionView, 0, len(missions))
	for i := range missions {
		views = append(views, h.view(&missions[i]))
	}
	respondData(w, r, http.StatusOK, views)
}

// GetMission returns a mission with its live state.
//
// Method: GET
// Path: /api/v1/missions/{id}
//
// @Summary Get a mission
// @Tags Missions
// @Produce json
// @Param id path int true "Mission ID"
// @Success 200 {object} models.APIResponse{data=MissionView}
// @Failure 401 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /missions/{id} [get]
func (h *Handler) GetMission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, ok := h.ownedMission(w, r, id)
	if !ok {
		return
	}
	respondData(w, r, http.StatusOK, h.view(m))
}

// StartMission starts the mission's runner. Starting a running mission is a
// no-op.
//
// Method: POST
// Path: /api/v1/missions/{id}/start
//
// @Summary Start a mission
// @Tags Missions
// @Produce json
// @Param id path int true "Mission ID"
// @Success 200 {object} models.APIResponse{data=MissionView}
// @Failure 401 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /missions/{id}/start [post]
func (h *Handler) StartMission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, ok := h.ownedMission(w, r, id)
	if !ok {
		return
	}
	if err := h.missions.StartMission(r.Context(), id); err != nil {
		respondStoreError(w, r, "Mission", err)
		return
	}
	respondData(w, r, http.StatusOK, h.view(m))
}

// StopMission cancels the mission's runner. Stopping an idle mission is a
// no-op.
//
// Method: POST
// Path: /api/v1/missions/{id}/stop
//
// @Summary Stop a mission
// @Tags Missions
// @Produce json
// @Param id path int true "Mission ID"
// @Success 200 {object} models.APIResponse{data=DetailResponse}
// @Failure 401 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /missions/{id}/stop [post]
func (h *Handler) StopMission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := h.ownedMission(w, r, id); !ok {
		return
	}
	detail := "Mission not running"
	if h.missions.StopMission(id) {
		detail = "Mission stopped"
	}
	respondData(w, r, http.StatusOK, DetailResponse{Detail: detail})
}

// SendCommand forwards an operator command. Unknown commands and commands
// for idle missions are accepted and dropped by the manager.
//
// Method: POST
// Path: /api/v1/missions/{id}/command, /api/v1/drone/{id}/command
//
// @Summary Send an operator command
// @Tags Missions
// @Accept json
// @Produce json
// @Param id path int true "Mission ID"
// @Param request body CommandRequest true "Command and parameters"
// @Success 200 {object} models.APIResponse{data=DetailResponse}
// @Failure 400 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /drone/{id}/command [post]
// @Router /missions/{id}/command [post]
func (h *Handler) SendCommand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req CommandRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "Missing command", nil)
		return
	}
	if _, ok := h.ownedMission(w, r, id); !ok {
		return
	}

	h.missions.SendCommand(id, req.Command, req.Params)
	respondData(w, r, http.StatusOK, DetailResponse{Detail: "Command forwarded"})
}

// ListDetections returns a mission's detections in insertion order.
//
// Method: GET
// Path: /api/v1/missions/{id}/detections
//
// @Summary List detections
// @Tags Detections
// @Produce json
// @Param id path int true "Mission ID"
// @Success 200 {object} models.APIResponse{data=[]models.Detection}
// @Failure 401 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /missions/{id}/detections [get]
func (h *Handler) ListDetections(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := h.ownedMission(w, r, id); !ok {
		return
	}
	dets, err := h.store.ListDetections(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, "Detection", err)
		return
	}
	if dets == nil {
		dets = []models.Detection{}
	}
	respondData(w, r, http.StatusOK, dets)
}

// CreateDetection records a detection reported by an external system.
//
// Method: POST
// Path: /api/v1/detections
//
// @Summary Record a detection
// @Tags Detections
// @Accept json
// @Produce json
// @Param request body DetectionCreateRequest true "Detection"
// @Success 201 {object} models.APIResponse{data=models.Detection}
// @Failure 400 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /detections [post]
func (h *Handler) CreateDetection(w http.ResponseWriter, r *http.Request) {
	var req DetectionCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	if _, ok := h.ownedMission(w, r, req.MissionID); !ok {
		return
	}

	det, err := h.store.CreateDetection(r.Context(), models.Detection{
		MissionID: req.MissionID,
		Lat:       *req.Lat,
		Lon:       *req.Lon,
		Label:     strings.TrimSpace(req.Label),
		Score:     req.Score,
	})
	if err != nil {
		respondStoreError(w, r, "Detection", err)
		return
	}
	respondData(w, r, http.StatusCreated, det)
}
