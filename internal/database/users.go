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
	"strings"
	"time"

	"github.com/tomtom215/skysurvey/internal/models"
)

// CreateUser inserts a user. Emails are stored lower-cased; a second
// account with the same email returns ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, email, hashedPassword string) (*models.User, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	email = normalizeEmail(email)
	if email == "" || hashedPassword == "" {
		return nil, fmt.Errorf("%w: email and password hash are required", ErrInvalidInput)
	}

	user := &models.User{
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now().UTC(),
	}

	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		db.q(`INSERT INTO users (email, hashed_password, created_at) VALUES (?, ?, ?) RETURNING id`),
		user.Email, user.HashedPassword, user.CreatedAt,
	).Scan(&user.ID)
	observe("INSERT", "users", start, err)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email %s", ErrDuplicate, email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByEmail looks a user up by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, "email", normalizeEmail(email))
}

// GetUser looks a user up by id.
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return db.getUser(ctx, "id", id)
}

func (db *DB) getUser(ctx context.Context, column string, value interface{}) (*models.User, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var u models.User
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		db.q(`SELECT id, email, hashed_password, created_at FROM users WHERE `+column+` = ?`),
		value,
	).Scan(&u.ID, &u.Email, &u.HashedPassword, &u.CreatedAt)
	observe("SELECT", "users", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UserExists reports whether a user id is known.
func (db *DB) UserExists(ctx context.Context, id int64) (bool, error) {
	_, err := db.GetUser(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
