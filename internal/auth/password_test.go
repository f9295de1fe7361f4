// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct-horse-42", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("hash %q is not bcrypt", hash)
	}
	if err := CheckPassword(hash, "correct-horse-42"); err != nil {
		t.Errorf("CheckPassword(correct) error = %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(wrong) error = %v, want ErrInvalidCredentials", err)
	}
	if err := CheckPassword("not-a-hash", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(malformed) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestHashPassword_OutOfRangeCostUsesDefault(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("pw-for-cost-1", 1)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatal(err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestPasswordPolicy(t *testing.T) {
	t.Parallel()

	policy := DefaultPasswordPolicy()
	tests := []struct {
		name     string
		password string
		email    string
		wantErr  string
	}{
		{"valid", "surveyor-77", "pilot@example.com", ""},
		{"too short", "ab1", "pilot@example.com", "at least 8"},
		{"no digit", "onlyletters", "pilot@example.com", "digit"},
		{"no letter", "1234567890123", "pilot@example.com", "letter"},
		{"common", "Password123", "pilot@example.com", "too common"},
		{"contains email", "pilot2026x", "pilot@example.com", "email name"},
		{"too long", strings.Repeat("a1", 40), "pilot@example.com", "at most 72"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := policy.Validate(tt.password, tt.email)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrWeakPassword) {
				t.Fatalf("Validate() error = %v, want ErrWeakPassword", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
