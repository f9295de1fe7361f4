// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/skysurvey/internal/models"
)

// CreateJourney inserts a journey and its waypoints in one transaction.
func (db *DB) CreateJourney(ctx context.Context, ownerID int64, name string, description *string, points []models.Waypoint) (*models.Journey, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if name == "" {
		return nil, fmt.Errorf("%w: journey name is required", ErrInvalidInput)
	}

	j := &models.Journey{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   time.Now().UTC(),
		Waypoints:   make([]models.Waypoint, 0, len(points)),
	}

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx,
		db.q(`INSERT INTO journeys (name, description, owner_id, created_at) VALUES (?, ?, ?, ?) RETURNING id`),
		j.Name, nullString(description), j.OwnerID, j.CreatedAt,
	).Scan(&j.ID)
	if err != nil {
		observe("INSERT", "journeys", start, err)
		return nil, fmt.Errorf("failed to insert journey: %w", err)
	}

	insertWaypoint := db.q(`INSERT INTO waypoints (journey_id, seq, lat, lon, alt) VALUES (?, ?, ?, ?, ?) RETURNING id`)
	for _, p := range points {
		wp := p
		wp.JourneyID = j.ID
		if err := tx.QueryRowContext(ctx, insertWaypoint,
			wp.JourneyID, wp.Seq, wp.Lat, wp.Lon, nullFloat(wp.Alt),
		).Scan(&wp.ID); err != nil {
			observe("INSERT", "waypoints", start, err)
			return nil, fmt.Errorf("failed to insert waypoint %d: %w", wp.Seq, err)
		}
		j.Waypoints = append(j.Waypoints, wp)
	}

	err = tx.Commit()
	observe("INSERT", "journeys", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to commit journey: %w", err)
	}

	sortWaypoints(j.Waypoints)
	return j, nil
}

// ListJourneys returns the owner's journeys with their waypoints, newest
// first.
func (db *DB) ListJourneys(ctx context.Context, ownerID int64) ([]models.Journey, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		db.q(`SELECT id, name, description, owner_id, created_at FROM journeys WHERE owner_id = ? ORDER BY id DESC`),
		ownerID,
	)
	observe("SELECT", "journeys", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list journeys: %w", err)
	}
	defer closeWithLog(rows, "journey rows")

	journeys := make([]models.Journey, 0)
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, err
		}
		journeys = append(journeys, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journeys: %w", err)
	}

	for i := range journeys {
		wps, err := db.listWaypoints(ctx, journeys[i].ID)
		if err != nil {
			return nil, err
		}
		journeys[i].Waypoints = wps
	}
	return journeys, nil
}

// GetJourney returns a journey with waypoints ordered by seq.
func (db *DB) GetJourney(ctx context.Context, id int64) (*models.Journey, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		db.q(`SELECT id, name, description, owner_id, created_at FROM journeys WHERE id = ?`), id)
	j, err := scanJourney(row)
	observe("SELECT", "journeys", start, err)
	if err != nil {
		return nil, err
	}

	if j.Waypoints, err = db.listWaypoints(ctx, j.ID); err != nil {
		return nil, err
	}
	return j, nil
}

// DeleteJourney removes a journey and its waypoints.
func (db *DB) DeleteJourney(ctx context.Context, id int64) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, db.q(`DELETE FROM waypoints WHERE journey_id = ?`), id); err != nil {
		observe("DELETE", "waypoints", start, err)
		return fmt.Errorf("failed to delete waypoints: %w", err)
	}
	res, err := tx.ExecContext(ctx, db.q(`DELETE FROM journeys WHERE id = ?`), id)
	if err != nil {
		observe("DELETE", "journeys", start, err)
		return fmt.Errorf("failed to delete journey: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	err = tx.Commit()
	observe("DELETE", "journeys", start, err)
	if err != nil {
		return fmt.Errorf("failed to commit journey delete: %w", err)
	}
	return nil
}

func (db *DB) listWaypoints(ctx context.Context, journeyID int64) ([]models.Waypoint, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		db.q(`SELECT id, journey_id, seq, lat, lon, alt FROM waypoints WHERE journey_id = ? ORDER BY seq, id`),
		journeyID,
	)
	observe("SELECT", "waypoints", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list waypoints: %w", err)
	}
	defer closeWithLog(rows, "waypoint rows")

	wps := make([]models.Waypoint, 0)
	for rows.Next() {
		var (
			wp  models.Waypoint
			alt sql.NullFloat64
		)
		if err := rows.Scan(&wp.ID, &wp.JourneyID, &wp.Seq, &wp.Lat, &wp.Lon, &alt); err != nil {
			return nil, fmt.Errorf("failed to scan waypoint: %w", err)
		}
		if alt.Valid {
			v := alt.Float64
			wp.Alt = &v
		}
		wps = append(wps, wp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate waypoints: %w", err)
	}
	return wps, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJourney(row rowScanner) (*models.Journey, error) {
	var (
		j    models.Journey
		desc sql.NullString
	)
	err := row.Scan(&j.ID, &j.Name, &desc, &j.OwnerID, &j.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan journey: %w", err)
	}
	if desc.Valid {
		s := desc.String
		j.Description = &s
	}
	return &j, nil
}

func sortWaypoints(wps []models.Waypoint) {
	sort.SliceStable(wps, func(a, b int) bool { return wps[a].Seq < wps[b].Seq })
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
