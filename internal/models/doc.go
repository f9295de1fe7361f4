// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

// Package models defines the data shapes shared across packages: the HTTP
// response envelope, users, journeys with their waypoints, missions,
// detections and the GeoJSON export.
//
// Types here carry json tags for the REST API and validate tags for
// go-playground/validator. They hold no behaviour beyond small helpers.
package models
