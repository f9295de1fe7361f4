// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

// Package testinfra starts throwaway Docker containers for integration tests.
//
// Everything here is behind the integration build tag, so plain go test runs
// never need Docker:
//
//	go test -tags integration ./internal/database/...
//
// # PostgreSQL
//
// StartPostgres launches a postgres:16-alpine container and returns its
// admin DSN. Tests share one container and isolate themselves with
// CreateDatabase, which hands back a DSN for a fresh empty database:
//
//	pg := testinfra.StartPostgres(t)
//	dsn := pg.CreateDatabase(t)
//	db, err := database.New(&config.DatabaseConfig{Driver: "postgres", DSN: dsn})
//
// # NATS
//
// StartNATS launches a nats:2.10-alpine server with JetStream enabled, for
// exercising the event mirror against an external broker rather than the
// embedded one.
//
// When Docker is unavailable the helpers call t.Skip.
package testinfra
