// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

/*
Package database provides the persistence layer for users, journeys,
missions and detections.

The same SQL runs on three engines through database/sql:

  - duckdb (default): github.com/duckdb/duckdb-go/v2, file or :memory:
  - sqlite: modernc.org/sqlite, pure Go, the historic app.db layout
  - postgres: github.com/jackc/pgx/v5, a pgxpool exposed through pgx's stdlib adapter

Queries are written with ? placeholders and rebound to $n for postgres.
Identity columns come from sequences on duckdb and postgres and from the
rowid alias on sqlite; inserts read the new id back with RETURNING.

There are no foreign keys. DuckDB cannot cascade deletes, so DeleteJourney
removes waypoints and the journey in one transaction instead.

# Mission sessions

AcquireSession hands a mission runner a mission-scoped handle after
checking that the database answers. The handle holds no connection; each
AppendDetection borrows one from the pool for a single insert, so the number
of running missions is not bounded by the pool size. DB_MAX_OPEN_CONNS sizes
the pool for duckdb and postgres.

# Timeouts

Every method accepts a context. Contexts without a deadline get a 30 second
default through ensureContext.
*/
package database
