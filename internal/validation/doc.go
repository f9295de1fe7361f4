// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by every handler. Field names in
// errors are taken from the json tag so messages refer to the request body
// as the client wrote it:
//
//	type createJourneyRequest struct {
//	    Name   string            `json:"name" validate:"notblank,max=200"`
//	    Points []models.Waypoint `json:"points" validate:"min=2,dive"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
//
// Custom tags:
//   - notblank: string with at least one non-space character
//   - uniqueseq: waypoint slice whose seq values are distinct
package validation
