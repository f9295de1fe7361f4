// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/skysurvey/internal/models"
)

// execQuerier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type execQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// CreateDetection stores a detection. A zero CreatedAt is set to now.
func (db *DB) CreateDetection(ctx context.Context, det models.Detection) (*models.Detection, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return db.insertDetection(ctx, db.conn, det)
}

func (db *DB) insertDetection(ctx context.Context, q execQuerier, det models.Detection) (*models.Detection, error) {
	if det.Label == "" {
		return nil, fmt.Errorf("%w: detection label is required", ErrInvalidInput)
	}
	if det.CreatedAt.IsZero() {
		det.CreatedAt = time.Now()
	}
	det.CreatedAt = det.CreatedAt.UTC()

	start := time.Now()
	err := q.QueryRowContext(ctx,
		db.q(`INSERT INTO detections (mission_id, lat, lon, label, score, created_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		det.MissionID, det.Lat, det.Lon, det.Label, nullFloat(det.Score), det.CreatedAt,
	).Scan(&det.ID)
	observe("INSERT", "detections", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection: %w", err)
	}
	return &det, nil
}

// ListDetections returns a mission's detections in insertion order.
func (db *DB) ListDetections(ctx context.Context, missionID int64) ([]models.Detection, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		db.q(`SELECT id, mission_id, lat, lon, label, score, created_at FROM detections WHERE mission_id = ? ORDER BY id`),
		missionID,
	)
	observe("SELECT", "detections", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer closeWithLog(rows, "detection rows")

	out := make([]models.Detection, 0)
	for rows.Next() {
		var (
			d     models.Detection
			score sql.NullFloat64
		)
		if err := rows.Scan(&d.ID, &d.MissionID, &d.Lat, &d.Lon, &d.Label, &score, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		if score.Valid {
			v := score.Float64
			d.Score = &v
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate detections: %w", err)
	}
	return out, nil
}
