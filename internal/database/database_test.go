// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/skysurvey/internal/config"
	"github.com/tomtom215/skysurvey/internal/mission"
	"github.com/tomtom215/skysurvey/internal/models"
	"github.com/tomtom215/skysurvey/internal/telemetry"
)

// testDBSemaphore serializes DuckDB test databases; concurrent CGO
// connections from many parallel tests can hang under CI load.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB creates an in-memory DuckDB database.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := New(&config.DatabaseConfig{
		Driver:    config.DriverDuckDB,
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// setupSQLiteDB creates an in-memory SQLite database.
func setupSQLiteDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   ":memory:",
	})
	if err != nil {
		t.Fatalf("Failed to create sqlite test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// driverSetup opens a fresh database for one subtest.
type driverSetup struct {
	name string
	open func(t *testing.T) *DB
}

// extraDrivers is extended by build-tagged test files.
var extraDrivers []driverSetup

// forEachDriver runs fn against every embedded engine, plus any engine
// registered in extraDrivers.
func forEachDriver(t *testing.T, fn func(t *testing.T, db *DB)) {
	t.Helper()
	t.Run(config.DriverDuckDB, func(t *testing.T) { fn(t, setupTestDB(t)) })
	t.Run(config.DriverSQLite, func(t *testing.T) { fn(t, setupSQLiteDB(t)) })
	for _, d := range extraDrivers {
		t.Run(d.name, func(t *testing.T) { fn(t, d.open(t)) })
	}
}

// seedMission creates a user, a two-point journey and a mission.
func seedMission(t *testing.T, db *DB) (*models.User, *models.Journey, *models.Mission) {
	t.Helper()
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "pilot@example.com", "$2a$12$hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	j, err := db.CreateJourney(ctx, u.ID, "harbour", nil, []models.Waypoint{
		{Seq: 0, Lat: 48.2, Lon: 16.37},
		{Seq: 1, Lat: 48.21, Lon: 16.38},
	})
	if err != nil {
		t.Fatalf("CreateJourney() error = %v", err)
	}
	m, err := db.CreateMission(ctx, j.ID)
	if err != nil {
		t.Fatalf("CreateMission() error = %v", err)
	}
	return u, j, m
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(&config.DatabaseConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestNew_SchemaIsIdempotent(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		if err := db.createTables(context.Background()); err != nil {
			t.Fatalf("second createTables() error = %v", err)
		}
	})
}

func TestPingAndDriver(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		if err := db.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
		if db.Driver() == "" {
			t.Error("Driver() is empty")
		}
		if db.Conn() == nil {
			t.Error("Conn() is nil")
		}
	})
}

func TestEnsureContext(t *testing.T) {
	ctx, cancel := ensureContext(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Error("expected default deadline")
	}

	parent, pcancel := context.WithTimeout(context.Background(), time.Minute)
	defer pcancel()
	ctx2, cancel2 := ensureContext(parent)
	defer cancel2()
	if ctx2 != parent {
		t.Error("context with deadline should be returned unchanged")
	}
}

func TestUsers(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()

		u, err := db.CreateUser(ctx, " Pilot@Example.com ", "hash")
		if err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
		if u.ID == 0 || u.Email != "pilot@example.com" {
			t.Errorf("CreateUser() = %+v", u)
		}

		if _, err := db.CreateUser(ctx, "pilot@example.com", "other"); !errors.Is(err, ErrDuplicate) {
			t.Errorf("duplicate CreateUser() error = %v, want ErrDuplicate", err)
		}
		if _, err := db.CreateUser(ctx, "", "hash"); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("empty email error = %v, want ErrInvalidInput", err)
		}

		got, err := db.GetUserByEmail(ctx, "PILOT@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail() error = %v", err)
		}
		if got.ID != u.ID || got.HashedPassword != "hash" {
			t.Errorf("GetUserByEmail() = %+v", got)
		}

		if _, err := db.GetUser(ctx, u.ID+100); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
		}

		ok, err := db.UserExists(ctx, u.ID)
		if err != nil || !ok {
			t.Errorf("UserExists() = %v, %v", ok, err)
		}
		ok, err = db.UserExists(ctx, 9999)
		if err != nil || ok {
			t.Errorf("UserExists(missing) = %v, %v", ok, err)
		}
	})
}

func TestJourneys(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		u, err := db.CreateUser(ctx, "owner@example.com", "hash")
		if err != nil {
			t.Fatal(err)
		}

		desc := "north shore"
		alt := 15.5
		j, err := db.CreateJourney(ctx, u.ID, "survey", &desc, []models.Waypoint{
			{Seq: 2, Lat: 48.3, Lon: 16.5},
			{Seq: 0, Lat: 48.1, Lon: 16.3, Alt: &alt},
			{Seq: 1, Lat: 48.2, Lon: 16.4},
		})
		if err != nil {
			t.Fatalf("CreateJourney() error = %v", err)
		}
		if j.ID == 0 || len(j.Waypoints) != 3 {
			t.Fatalf("CreateJourney() = %+v", j)
		}

		got, err := db.GetJourney(ctx, j.ID)
		if err != nil {
			t.Fatalf("GetJourney() error = %v", err)
		}
		for i, wp := range got.Waypoints {
			if wp.Seq != i {
				t.Errorf("waypoint %d has seq %d; want seq order", i, wp.Seq)
			}
		}
		if got.Waypoints[0].Alt == nil || *got.Waypoints[0].Alt != 15.5 {
			t.Errorf("alt not round-tripped: %+v", got.Waypoints[0])
		}
		if got.Waypoints[1].Alt != nil {
			t.Errorf("nil alt came back as %v", *got.Waypoints[1].Alt)
		}
		if got.Description == nil || *got.Description != "north shore" {
			t.Errorf("description = %v", got.Description)
		}

		if _, err := db.CreateJourney(ctx, u.ID, "second", nil, []models.Waypoint{{Seq: 0}, {Seq: 1}}); err != nil {
			t.Fatal(err)
		}
		list, err := db.ListJourneys(ctx, u.ID)
		if err != nil {
			t.Fatalf("ListJourneys() error = %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("ListJourneys() returned %d journeys, want 2", len(list))
		}
		// Newest first.
		if list[0].Name != "second" || list[0].Description != nil {
			t.Errorf("ListJourneys()[0] = %+v, want the description-less journey", list[0])
		}
		if other, _ := db.ListJourneys(ctx, u.ID+1); len(other) != 0 {
			t.Errorf("other owner sees %d journeys", len(other))
		}

		if err := db.DeleteJourney(ctx, j.ID); err != nil {
			t.Fatalf("DeleteJourney() error = %v", err)
		}
		if _, err := db.GetJourney(ctx, j.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetJourney after delete error = %v, want ErrNotFound", err)
		}
		if wps, _ := db.listWaypoints(ctx, j.ID); len(wps) != 0 {
			t.Errorf("%d waypoints survived the delete", len(wps))
		}
		if err := db.DeleteJourney(ctx, j.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("second DeleteJourney() error = %v, want ErrNotFound", err)
		}
	})
}

func TestMissions(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		u, j, m := seedMission(t, db)

		if m.Status != models.MissionStatusCreated || m.JourneyID != j.ID || m.StartedAt.IsZero() {
			t.Errorf("CreateMission() = %+v", m)
		}
		if _, err := db.CreateMission(ctx, 9999); !errors.Is(err, ErrNotFound) {
			t.Errorf("CreateMission(missing journey) error = %v, want ErrNotFound", err)
		}

		got, err := db.GetMission(ctx, m.ID)
		if err != nil {
			t.Fatalf("GetMission() error = %v", err)
		}
		if got.OwnerID != u.ID {
			t.Errorf("OwnerID = %d, want %d", got.OwnerID, u.ID)
		}

		if err := db.UpdateMissionStatus(ctx, m.ID, models.MissionStatusRunning); err != nil {
			t.Fatalf("UpdateMissionStatus() error = %v", err)
		}
		status, err := db.GetMissionStatus(ctx, m.ID)
		if err != nil || status != models.MissionStatusRunning {
			t.Errorf("GetMissionStatus() = %q, %v", status, err)
		}

		_, err = db.GetMissionStatus(ctx, 9999)
		if !errors.Is(err, ErrNotFound) || !errors.Is(err, mission.ErrMissionNotFound) {
			t.Errorf("GetMissionStatus(missing) error = %v, want both not-found sentinels", err)
		}
		if err := db.UpdateMissionStatus(ctx, 9999, "stopped"); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateMissionStatus(missing) error = %v, want ErrNotFound", err)
		}

		list, err := db.ListMissions(ctx, u.ID, models.MissionFilter{})
		if err != nil || len(list) != 1 {
			t.Fatalf("ListMissions() = %v, %v", list, err)
		}
		if list, _ := db.ListMissions(ctx, u.ID+1, models.MissionFilter{}); len(list) != 0 {
			t.Errorf("other owner sees %d missions", len(list))
		}

		later := m.StartedAt.Add(time.Hour)
		earlier := m.StartedAt.Add(-time.Hour)
		filters := []struct {
			name   string
			filter models.MissionFilter
			want   int
		}{
			{"matching status", models.MissionFilter{Statuses: []string{models.MissionStatusRunning, models.MissionStatusFailed}}, 1},
			{"other status", models.MissionFilter{Statuses: []string{models.MissionStatusCompleted}}, 0},
			{"since before start", models.MissionFilter{Since: &earlier}, 1},
			{"since after start", models.MissionFilter{Since: &later}, 0},
			{"limit", models.MissionFilter{Limit: 1}, 1},
		}
		for _, f := range filters {
			got, err := db.ListMissions(ctx, u.ID, f.filter)
			if err != nil || len(got) != f.want {
				t.Errorf("%s: ListMissions() = %d missions, %v; want %d", f.name, len(got), err, f.want)
			}
		}
	})
}

func TestDetections(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		_, _, m := seedMission(t, db)

		score := 0.875
		d, err := db.CreateDetection(ctx, models.Detection{MissionID: m.ID, Lat: 48.2, Lon: 16.37, Label: "plastic", Score: &score})
		if err != nil {
			t.Fatalf("CreateDetection() error = %v", err)
		}
		if d.ID == 0 || d.CreatedAt.IsZero() {
			t.Errorf("CreateDetection() = %+v", d)
		}
		if _, err := db.CreateDetection(ctx, models.Detection{MissionID: m.ID, Label: "bottle"}); err != nil {
			t.Fatalf("CreateDetection(no score) error = %v", err)
		}
		if _, err := db.CreateDetection(ctx, models.Detection{MissionID: m.ID}); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("CreateDetection(no label) error = %v, want ErrInvalidInput", err)
		}

		list, err := db.ListDetections(ctx, m.ID)
		if err != nil {
			t.Fatalf("ListDetections() error = %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("ListDetections() returned %d, want 2", len(list))
		}
		if list[0].Score == nil || *list[0].Score != 0.875 {
			t.Errorf("score = %v", list[0].Score)
		}
		if list[1].Score != nil {
			t.Errorf("nil score came back as %v", *list[1].Score)
		}
	})
}

func TestSession(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		_, _, m := seedMission(t, db)

		s, err := db.AcquireSession(ctx, m.ID)
		if err != nil {
			t.Fatalf("AcquireSession() error = %v", err)
		}

		// The mission status can still be written while a session is held.
		if err := db.UpdateMissionStatus(ctx, m.ID, models.MissionStatusRunning); err != nil {
			t.Fatalf("UpdateMissionStatus() with open session error = %v", err)
		}

		ts := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
		stored, err := s.AppendDetection(ctx, telemetry.DetectionEvent{
			MissionID: m.ID, Lat: 48.2005, Lon: 16.3695, Label: "plastic", Score: 0.812, Timestamp: ts,
		})
		if err != nil {
			t.Fatalf("AppendDetection() error = %v", err)
		}
		if stored.ID == 0 || stored.MissionID != m.ID || !stored.CreatedAt.Equal(ts) {
			t.Errorf("AppendDetection() = %+v", stored)
		}

		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
		if _, err := s.AppendDetection(ctx, telemetry.DetectionEvent{Label: "plastic"}); err == nil {
			t.Error("AppendDetection after Close should fail")
		}

		list, err := db.ListDetections(ctx, m.ID)
		if err != nil || len(list) != 1 {
			t.Fatalf("ListDetections() = %v, %v", list, err)
		}
		if !list[0].CreatedAt.Equal(ts) {
			t.Errorf("created_at = %v, want %v", list[0].CreatedAt, ts)
		}
	})
}
