// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

/*
Package api serves the REST surface and the live mission channel.

Routes live under /api/v1 and answer with the models.APIResponse envelope,
except the GeoJSON export which is served raw as application/geo+json.

Route groups:

  - /api/v1/health: unauthenticated health checks (database, active missions, live
    subscribers)
  - /api/v1/auth: signup, login (JSON or form), refresh, me
  - /api/v1/journeys: journey CRUD and GeoJSON export
  - /api/v1/missions: create, list, start, stop, command, detections
  - /api/v1/drone/{id}/command: alias of the mission command route
  - /api/v1/missions/ws/{id}: websocket live channel
  - /metrics: Prometheus exposition
  - /swagger/*: OpenAPI document and UI from the docs package

Every journey, mission and detection is scoped to the authenticated owner; a
record owned by someone else is reported as not found.

Middleware order is request id, real IP, recoverer, CORS and Prometheus at the
root, then a per-group httprate limit and the bearer token check.
*/
package api
