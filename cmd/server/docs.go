// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

// @title Skysurvey API
// @version 1.0
// @description Drone survey mission backend.
// @description
// @description ## Authentication
// @description
// @description Endpoints outside /auth and /health need a bearer access token.
// @description Obtain one from `/api/v1/auth/login`; the live channel also accepts it as a `token` query parameter.
// @description
// @description ## Error Responses
// @description
// @description Errors use the response envelope with `status: "error"` and an `error` object carrying `code` and `message`.
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/skysurvey/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Access token in the form: Bearer <token>. Obtain one from /auth/login.
//
// @tag.name Core
// @tag.description Health and readiness
//
// @tag.name Auth
// @tag.description Accounts and token issuance
//
// @tag.name Journeys
// @tag.description Planned survey routes
//
// @tag.name Missions
// @tag.description Mission lifecycle and operator commands
//
// @tag.name Detections
// @tag.description Object sightings recorded during missions
//
// @tag.name Realtime
// @tag.description Per-mission websocket channel
package main
