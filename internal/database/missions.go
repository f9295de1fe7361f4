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
	"time"

	"github.com/tomtom215/skysurvey/internal/database/query"
	"github.com/tomtom215/skysurvey/internal/mission"
	"github.com/tomtom215/skysurvey/internal/models"
)

const missionColumns = `m.id, m.journey_id, m.status, m.started_at, j.owner_id`

// CreateMission inserts a mission for journeyID with status created.
func (db *DB) CreateMission(ctx context.Context, journeyID int64) (*models.Mission, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	j, err := db.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}

	m := &models.Mission{
		JourneyID: journeyID,
		Status:    models.MissionStatusCreated,
		StartedAt: time.Now().UTC(),
		OwnerID:   j.OwnerID,
	}

	start := time.Now()
	err = db.conn.QueryRowContext(ctx,
		db.q(`INSERT INTO missions (journey_id, status, started_at) VALUES (?, ?, ?) RETURNING id`),
		m.JourneyID, m.Status, m.StartedAt,
	).Scan(&m.ID)
	observe("INSERT", "missions", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create mission: %w", err)
	}
	return m, nil
}

// GetMission returns a mission with its owner resolved through the journey.
func (db *DB) GetMission(ctx context.Context, id int64) (*models.Mission, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, db.q(`SELECT `+missionColumns+`
		FROM missions m JOIN journeys j ON j.id = m.journey_id
		WHERE m.id = ?`), id)
	m, err := scanMission(row)
	observe("SELECT", "missions", start, err)
	return m, err
}

// ListMissions returns missions on journeys owned by ownerID that match
// filter, newest first.
func (db *DB) ListMissions(ctx context.Context, ownerID int64, filter models.MissionFilter) ([]models.Mission, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	where, args := query.NewWhereBuilder().
		AddClause("j.owner_id = ?", ownerID).
		AddIn("m.status", filter.Statuses).
		AddTimeRange("m.started_at", filter.Since, nil).
		BuildWithPrefix()

	stmt := `SELECT ` + missionColumns + `
		FROM missions m JOIN journeys j ON j.id = m.journey_id
		` + where + `
		ORDER BY m.id DESC`
	if filter.Limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, db.q(stmt), args...)
	observe("SELECT", "missions", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer closeWithLog(rows, "mission rows")

	missions := make([]models.Mission, 0)
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate missions: %w", err)
	}
	return missions, nil
}

// GetMissionStatus returns the stored status. Unknown ids yield an error
// matching both ErrNotFound and mission.ErrMissionNotFound.
func (db *DB) GetMissionStatus(ctx context.Context, id int64) (string, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var status string
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, db.q(`SELECT status FROM missions WHERE id = ?`), id).Scan(&status)
	observe("SELECT", "missions", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("mission %d: %w: %w", id, ErrNotFound, mission.ErrMissionNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get mission status: %w", err)
	}
	return status, nil
}

// UpdateMissionStatus sets the stored status.
func (db *DB) UpdateMissionStatus(ctx context.Context, id int64, status string) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, db.q(`UPDATE missions SET status = ? WHERE id = ?`), status, id)
	observe("UPDATE", "missions", start, err)
	if err != nil {
		return fmt.Errorf("failed to update mission status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mission %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanMission(row rowScanner) (*models.Mission, error) {
	var m models.Mission
	err := row.Scan(&m.ID, &m.JourneyID, &m.Status, &m.StartedAt, &m.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan mission: %w", err)
	}
	return &m, nil
}
