// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/models"
)

// CreateJourney stores a journey with its waypoints.
//
// Method: POST
// Path: /api/v1/journeys
//
// @Summary Create a journey
// @Tags Journeys
// @Accept json
// @Produce json
// @Param request body JourneyCreateRequest true "Journey with at least two waypoints"
// @Success 201 {object} models.APIResponse{data=models.Journey}
// @Failure 400 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Security BearerAuth
// @Router /journeys [post]
func (h *Handler) CreateJourney(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req JourneyCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.fillSeq()
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	journey, err := h.store.CreateJourney(r.Context(), p.UserID, req.Name, req.Description, req.waypoints())
	if err != nil {
		respondStoreError(w, r, "Journey", err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Int64("journey_id", journey.ID).
		Int("waypoints", len(journey.Waypoints)).
		Msg("journey created")
	respondData(w, r, http.StatusCreated, journey)
}

// ListJourneys returns the caller's journeys, newest first.
//
// Method: GET
// Path: /api/v1/journeys
//
// @Summary List journeys
// @Tags Journeys
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Journey}
// @Failure 401 {object} models.APIResponse
// @Security BearerAuth
// @Router /journeys [get]
func (h *Handler) ListJourneys(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	journeys, err := h.store.ListJourneys(r.Context(), p.UserID)
	if err != nil {
		respondStoreError(w, r, "Journey", err)
		return
	}
	if journeys == nil {
		journeys = []models.Journey{}
	}
	respondData(w, r, http.StatusOK, journeys)
}

// GetJourney returns one journey with waypoints in seq order.
//
// Method: GET
// Path: /api/v1/journeys/{id}
//
// @Summary Get a journey
// @Tags Journeys
// @Produce json
// @Param id path int true "Journey ID"
// @Success 200 {object} models.APIResponse{data=models.Journey}
// @Failure 401 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /journeys/{id} [get]
func (h *Handler) GetJourney(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	journey, ok := h.ownedJourney(w, r, id)
	if !ok {
		return
	}
	respondData(w, r, http.StatusOK, journey)
}

// DeleteJourney removes a journey and its waypoints.
//
// Method: DELETE
// Path: /api/v1/journeys/{id}
//
// @Summary Delete a journey
// @Tags Journeys
// @Produce json
// @Param id path int true "Journey ID"
// @Success 204 "No Content"
// @Failure 401 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /journeys/{id} [delete]
func (h *Handler) DeleteJourney(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := h.ownedJourney(w, r, id); !ok {
		return
	}
	if err := h.store.DeleteJourney(r.Context(), id); err != nil {
		respondStoreError(w, r, "Journey", err)
		return
	}
	logging.Ctx(r.Context()).Info().Int64("journey_id", id).Msg("journey deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ExportJourney returns the journey as a GeoJSON Feature. The body is the
// bare Feature, not the response envelope.
//
// Method: GET
// Path: /api/v1/journeys/{id}/export
//
// @Summary Export a journey as GeoJSON
// @Tags Journeys
// @Produce json
// @Param id path int true "Journey ID"
// @Success 200 {object} models.GeoJSONFeature
// @Failure 401 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /journeys/{id}/export [get]
func (h *Handler) ExportJourney(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	journey, ok := h.ownedJourney(w, r, id)
	if !ok {
		return
	}
	data, err := json.Marshal(models.JourneyToGeoJSON(journey))
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Could not encode journey", err)
		return
	}
	writeBody(w, http.StatusOK, "application/geo+json", data)
}
