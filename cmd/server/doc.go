// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

/*
Skysurvey is the drone survey mission backend.

It stores users, survey journeys and missions, simulates a drone flying each
running mission, and streams telemetry and detections to browsers over a
per-mission websocket.

# Usage

	skysurvey                     # config from defaults, config.yaml and env
	CONFIG_PATH=/etc/sky.yaml skysurvey
	go build -tags nats ./cmd/server   # include the NATS event mirror

# Startup Order

 1. Configuration (koanf: defaults, YAML file, environment) and logging.
 2. Database: DuckDB by default, SQLite or PostgreSQL by DATABASE_DRIVER.
 3. Websocket hub.
 4. Optional NATS mirror (embedded server, MISSION_EVENTS stream,
    publisher, forwarder). Without -tags nats this step only warns when
    NATS_ENABLED is set.
 5. Mission manager, publishing through the forwarder when present.
 6. JWT manager, auth middleware, login throttle, HTTP handler and router.
 7. Supervisor tree: data (mission manager), messaging (hub, forwarder) and
    api (HTTP server) layers.

SIGINT or SIGTERM cancels the tree. Running missions are stopped and marked
stopped, websocket clients are disconnected, queued NATS events get a short
drain window, and services that miss the shutdown timeout are logged.
*/
package main
