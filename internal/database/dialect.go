// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package database

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/skysurvey/internal/config"
)

// dialect captures the per-engine differences in DDL and placeholders.
type dialect struct {
	driver       string
	dollarParams bool
	useSequences bool
	textType     string
	floatType    string
	timeType     string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case config.DriverDuckDB:
		return dialect{
			driver:       driver,
			useSequences: true,
			textType:     "VARCHAR",
			floatType:    "DOUBLE",
			timeType:     "TIMESTAMP",
		}, nil
	case config.DriverPostgres:
		return dialect{
			driver:       driver,
			dollarParams: true,
			useSequences: true,
			textType:     "TEXT",
			floatType:    "DOUBLE PRECISION",
			timeType:     "TIMESTAMPTZ",
		}, nil
	case config.DriverSQLite:
		return dialect{
			driver:    driver,
			textType:  "TEXT",
			floatType: "REAL",
			timeType:  "TIMESTAMP",
		}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// rebind rewrites ? placeholders to $1, $2, ... for postgres. Question
// marks inside single-quoted literals are left alone.
func (d dialect) rebind(query string) string {
	if !d.dollarParams || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// idColumn is the primary key definition for table.
func (d dialect) idColumn(table string) string {
	if d.useSequences {
		return fmt.Sprintf("id BIGINT PRIMARY KEY DEFAULT nextval('%s_id_seq')", table)
	}
	return "id INTEGER PRIMARY KEY"
}

var schemaTables = []string{"users", "journeys", "waypoints", "missions", "detections"}

// schema returns the DDL statements in execution order. Every statement is
// idempotent.
func (d dialect) schema() []string {
	var stmts []string
	if d.useSequences {
		for _, table := range schemaTables {
			stmts = append(stmts, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s_id_seq START 1", table))
		}
	}

	text, float, ts := d.textType, d.floatType, d.timeType
	stmts = append(stmts,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			%s,
			email %s NOT NULL UNIQUE,
			hashed_password %s NOT NULL,
			created_at %s NOT NULL
		)`, d.idColumn("users"), text, text, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS journeys (
			%s,
			name %s NOT NULL,
			description %s,
			owner_id BIGINT NOT NULL,
			created_at %s NOT NULL
		)`, d.idColumn("journeys"), text, text, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS waypoints (
			%s,
			journey_id BIGINT NOT NULL,
			seq INTEGER NOT NULL,
			lat %s NOT NULL,
			lon %s NOT NULL,
			alt %s
		)`, d.idColumn("waypoints"), float, float, float),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS missions (
			%s,
			journey_id BIGINT NOT NULL,
			status %s NOT NULL,
			started_at %s NOT NULL
		)`, d.idColumn("missions"), text, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS detections (
			%s,
			mission_id BIGINT NOT NULL,
			lat %s NOT NULL,
			lon %s NOT NULL,
			label %s NOT NULL,
			score %s,
			created_at %s NOT NULL
		)`, d.idColumn("detections"), float, float, text, float, ts),

		"CREATE INDEX IF NOT EXISTS idx_journeys_owner ON journeys(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_waypoints_journey ON waypoints(journey_id, seq)",
		"CREATE INDEX IF NOT EXISTS idx_missions_journey ON missions(journey_id)",
		"CREATE INDEX IF NOT EXISTS idx_detections_mission ON detections(mission_id)",
	)
	return stmts
}
