// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Supported database drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ParseDatabaseURL splits a DATABASE_URL into a driver name and the target
// that driver expects: a file path for duckdb and sqlite, the full URL for
// postgres.
//
// File URLs follow the SQLAlchemy convention: three slashes for a relative
// path, four for an absolute one.
//
//	sqlite:///./app.db            -> sqlite, ./app.db
//	sqlite:////var/lib/app.db     -> sqlite, /var/lib/app.db
//	sqlite://                     -> sqlite, :memory:
//	duckdb:///data/s.duckdb       -> duckdb, data/s.duckdb
//	postgres://u:p@h:5432/db      -> postgres, postgres://u:p@h:5432/db
func ParseDatabaseURL(raw string) (driver, target string, err error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return "", "", fmt.Errorf("missing scheme in %q", redactURL(raw))
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		u, perr := url.Parse(raw)
		if perr != nil {
			return "", "", fmt.Errorf("failed to parse URL: %w", perr)
		}
		if u.Host == "" {
			return "", "", fmt.Errorf("postgres URL requires a host")
		}
		return DriverPostgres, raw, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, filePathFromURL(rest), nil
	case "duckdb":
		return DriverDuckDB, filePathFromURL(rest), nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

func filePathFromURL(rest string) string {
	if rest == "" || rest == "/" || rest == "/:memory:" {
		return ":memory:"
	}
	// The first slash separates the empty host from the path.
	return strings.TrimPrefix(rest, "/")
}

// redactURL hides credentials so the value can appear in error messages.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}

// validateNATSURL accepts nats, tls, ws and wss URLs with a host.
func validateNATSURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}
