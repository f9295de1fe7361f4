// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when an email and password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for malformed, expired or mistyped tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrWeakPassword is returned when a password fails the policy.
	ErrWeakPassword = errors.New("password does not meet policy")
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

// HashPassword hashes password with bcrypt at the given cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password with a bcrypt hash. Any mismatch or
// malformed hash returns ErrInvalidCredentials.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// PasswordPolicy defines the minimum strength of account passwords.
type PasswordPolicy struct {
	MinLength     int
	RequireLetter bool
	RequireDigit  bool

	// ForbidCommon rejects passwords from a short list of breached ones.
	ForbidCommon bool

	// ForbidEmail rejects passwords containing the email's local part.
	ForbidEmail bool
}

// DefaultPasswordPolicy returns the signup policy.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:     8,
		RequireLetter: true,
		RequireDigit:  true,
		ForbidCommon:  true,
		ForbidEmail:   true,
	}
}

// Validate checks password against the policy. The returned error wraps
// ErrWeakPassword and lists every failed rule.
func (p PasswordPolicy) Validate(password, email string) error {
	var problems []string

	if len(password) < p.MinLength {
		problems = append(problems, fmt.Sprintf("must be at least %d characters", p.MinLength))
	}
	if len(password) > maxPasswordBytes {
		problems = append(problems, fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if p.RequireLetter && !hasLetter {
		problems = append(problems, "must contain a letter")
	}
	if p.RequireDigit && !hasDigit {
		problems = append(problems, "must contain a digit")
	}

	lower := strings.ToLower(password)
	if p.ForbidCommon && isCommonPassword(lower) {
		problems = append(problems, "is too common")
	}
	if p.ForbidEmail {
		if local, _, ok := strings.Cut(strings.ToLower(email), "@"); ok && len(local) >= 3 && strings.Contains(lower, local) {
			problems = append(problems, "must not contain the email name")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(problems, "; "))
	}
	return nil
}

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {},
	"123456789": {}, "1234567890": {}, "qwerty123": {}, "qwertyuiop": {},
	"iloveyou1": {}, "admin123": {}, "letmein1": {}, "welcome1": {},
	"abc12345": {}, "passw0rd": {}, "trustno1": {}, "football1": {},
	"monkey123": {}, "dragon123": {}, "sunshine1": {}, "drone123": {},
}

func isCommonPassword(lower string) bool {
	_, ok := commonPasswords[lower]
	return ok
}
