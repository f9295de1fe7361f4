// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

/*
Package config loads Skysurvey configuration.

Values are layered with koanf, later layers winning:

 1. built-in defaults (defaultConfig)
 2. an optional YAML file (CONFIG_PATH, or config.yaml in the working dir)
 3. environment variables, mapped explicitly in envTransformFunc

Commonly used environment variables:

	HTTP_HOST, HTTP_PORT, ENVIRONMENT
	DATABASE_URL            sqlite:///./app.db, duckdb:///data/skysurvey.duckdb, postgres://...
	DB_DRIVER, DB_PATH      alternative to DATABASE_URL
	SECRET_KEY / JWT_SECRET token signing key (32+ chars in production)
	MISSION_TICK_INTERVAL   1s
	MISSION_TICK_BUDGET     60 (0 runs until stopped)
	NATS_ENABLED, NATS_URL, NATS_EMBEDDED
	LOG_LEVEL, LOG_FORMAT

Load validates the result before returning it, so callers can trust every
field.
*/
package config
