// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

//go:build integration

package database

import (
	"sync"
	"testing"

	"github.com/tomtom215/skysurvey/internal/config"
	"github.com/tomtom215/skysurvey/internal/testinfra"
)

var (
	pgOnce      sync.Once
	pgContainer *testinfra.PostgresContainer
)

func init() {
	extraDrivers = append(extraDrivers, driverSetup{name: config.DriverPostgres, open: setupPostgresDB})
}

// setupPostgresDB opens a fresh database on a container shared by the
// whole test binary.
func setupPostgresDB(t *testing.T) *DB {
	t.Helper()
	testinfra.SkipIfNoDocker(t)

	pgOnce.Do(func() { pgContainer = testinfra.StartPostgres(&sharedTB{T: t}) })
	if pgContainer == nil {
		t.Skip("postgres container unavailable")
	}

	db, err := New(&config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		DSN:          pgContainer.CreateDatabase(t),
		MaxOpenConns: 4,
		MinConns:     1,
	})
	if err != nil {
		t.Fatalf("Failed to create postgres test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// sharedTB keeps the container alive past the subtest that started it;
// the process exit cleans it up via the testcontainers reaper.
type sharedTB struct {
	*testing.T
}

func (s *sharedTB) Cleanup(func()) {}

func TestPostgresRejectsBadDSN(t *testing.T) {
	_, err := New(&config.DatabaseConfig{Driver: config.DriverPostgres, DSN: "postgres://nobody@127.0.0.1:1/none?connect_timeout=1"})
	if err == nil {
		t.Fatal("New() should fail when postgres is unreachable")
	}
}
