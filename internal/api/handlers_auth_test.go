// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package api

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skysurvey/internal/auth"
	"github.com/tomtom215/skysurvey/internal/models"
)

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	status, resp, raw := env.do(t, http.MethodPost, "/api/v1/auth/signup", "",
		map[string]string{"email": "Pilot@Example.com", "password": testPassword})
	if status != http.StatusCreated {
		t.Fatalf("status = %d, body %s", status, raw)
	}
	var p auth.Principal
	decodeData(t, resp, &p)
	if p.UserID == 0 || p.Email != "pilot@example.com" {
		t.Errorf("principal = %+v", p)
	}
	if strings.Contains(string(raw), "hashed") {
		t.Errorf("response leaks the password hash: %s", raw)
	}

	t.Run("duplicate email", func(t *testing.T) {
		status, resp, _ := env.do(t, http.MethodPost, "/api/v1/auth/signup", "",
			map[string]string{"email": "pilot@example.com", "password": testPassword})
		if status != http.StatusConflict {
			t.Fatalf("status = %d, want 409", status)
		}
		if resp.Error == nil || resp.Error.Message != "Email already registered" {
			t.Errorf("error = %+v", resp.Error)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		status, resp, _ := env.do(t, http.MethodPost, "/api/v1/auth/signup", "",
			map[string]string{"email": "new@example.com", "password": "short"})
		if status != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", status)
		}
		if resp.Error.Code != models.ErrCodeValidation {
			t.Errorf("code = %s", resp.Error.Code)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		status, _, _ := env.do(t, http.MethodPost, "/api/v1/auth/signup", "",
			map[string]string{"email": "not-an-email", "password": testPassword})
		if status != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", status)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		status, resp, _ := env.do(t, http.MethodPost, "/api/v1/auth/signup", "", "{")
		if status != http.StatusBadRequest || resp.Error.Code != models.ErrCodeBadRequest {
			t.Fatalf("status = %d, error = %+v", status, resp.Error)
		}
	})
}

func TestLogin_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "pilot@example.com")

	status, resp, raw := env.do(t, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"email": "PILOT@example.com", "password": testPassword})
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %s", status, raw)
	}
	var pair auth.TokenPair
	decodeData(t, resp, &pair)
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.TokenType != "bearer" {
		t.Fatalf("pair = %+v", pair)
	}

	status, resp, _ = env.do(t, http.MethodGet, "/api/v1/auth/me", pair.AccessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("me status = %d", status)
	}
	var me auth.Principal
	decodeData(t, resp, &me)
	if me.Email != "pilot@example.com" {
		t.Errorf("me = %+v", me)
	}
}

func TestLogin_Form(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "pilot@example.com")

	form := url.Values{"username": {"pilot@example.com"}, "password": {testPassword}}
	resp, err := http.PostForm(env.server.URL+"/api/v1/auth/login", form)
	if err != nil {
		t.Fatalf("PostForm() error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Data auth.TokenPair `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.AccessToken == "" {
		t.Error("missing access token")
	}
}

func TestLogin_Rejects(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "pilot@example.com")

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"wrong password", map[string]string{"email": "pilot@example.com", "password": "nope-nope-1"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"email": "ghost@example.com", "password": testPassword}, http.StatusUnauthorized},
		{"missing password", map[string]string{"email": "pilot@example.com"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp, _ := env.do(t, http.MethodPost, "/api/v1/auth/login", "", tt.body)
			if status != tt.want {
				t.Fatalf("status = %d, want %d", status, tt.want)
			}
			if status == http.StatusUnauthorized && resp.Error.Message != "Invalid credentials" {
				t.Errorf("message = %q", resp.Error.Message)
			}
		})
	}
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	u, access := env.user(t, "pilot@example.com")
	pair, err := env.jwt.GenerateTokenPair(u.ID, u.Email)
	if err != nil {
		t.Fatal(err)
	}

	status, resp, raw := env.do(t, http.MethodPost, "/api/v1/auth/refresh", "",
		map[string]string{"refresh_token": pair.RefreshToken})
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %s", status, raw)
	}
	var next auth.TokenPair
	decodeData(t, resp, &next)
	if _, err := env.jwt.ValidateAccessToken(next.AccessToken); err != nil {
		t.Errorf("refreshed access token invalid: %v", err)
	}

	// An access token is not a refresh token.
	status, _, _ = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "",
		map[string]string{"refresh_token": access})
	if status != http.StatusUnauthorized {
		t.Errorf("access token as refresh: status = %d, want 401", status)
	}

	status, _, _ = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{})
	if status != http.StatusBadRequest {
		t.Errorf("missing token: status = %d, want 400", status)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/journeys"},
		{http.MethodPost, "/api/v1/missions"},
		{http.MethodPost, "/api/v1/drone/1/command"},
		{http.MethodGet, "/api/v1/missions/ws/1"},
		{http.MethodGet, "/api/v1/auth/me"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			status, resp, _ := env.do(t, p.method, p.path, "", nil)
			if status != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", status)
			}
			if resp.Error == nil || resp.Error.Code != models.ErrCodeUnauthorized {
				t.Errorf("error = %+v", resp.Error)
			}
		})
	}

	status, _, _ := env.do(t, http.MethodGet, "/api/v1/journeys", "garbage", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d", status)
	}
}
