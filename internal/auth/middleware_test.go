// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeUsers map[int64]bool

func (f fakeUsers) UserExists(_ context.Context, id int64) (bool, error) {
	if id == 500 {
		return false, errors.New("db down")
	}
	return f[id], nil
}

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			http.Error(w, "principal missing", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(p.Email))
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(t)
	mw := NewMiddleware(m, fakeUsers{1: true, 500: true})

	pair, err := m.GenerateTokenPair(1, "pilot@example.com")
	if err != nil {
		t.Fatal(err)
	}
	gone, err := m.GenerateTokenPair(2, "gone@example.com")
	if err != nil {
		t.Fatal(err)
	}
	broken, err := m.GenerateTokenPair(500, "x@example.com")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"bearer header", "/me", "Bearer " + pair.AccessToken, http.StatusOK},
		{"lowercase scheme", "/me", "bearer " + pair.AccessToken, http.StatusOK},
		{"query token", "/ws/1?token=" + pair.AccessToken, "", http.StatusOK},
		{"missing", "/me", "", http.StatusUnauthorized},
		{"basic scheme", "/me", "Basic Zm9vOmJhcg==", http.StatusUnauthorized},
		{"refresh token", "/me", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"deleted user", "/me", "Bearer " + gone.AccessToken, http.StatusUnauthorized},
		{"lookup failure", "/me", "Bearer " + broken.AccessToken, http.StatusUnauthorized},
		{"garbage", "/me", "Bearer abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw.Authenticate(principalEcho()).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && rec.Body.String() != "pilot@example.com" {
				t.Errorf("body = %q", rec.Body.String())
			}
			if tt.want == http.StatusUnauthorized {
				if !strings.Contains(rec.Body.String(), `"code":"UNAUTHORIZED"`) {
					t.Errorf("body = %s, want UNAUTHORIZED envelope", rec.Body.String())
				}
				if rec.Header().Get("WWW-Authenticate") != "Bearer" {
					t.Error("missing WWW-Authenticate header")
				}
			}
		})
	}
}

func TestAuthenticate_NilLookupTrustsToken(t *testing.T) {
	t.Parallel()
	m := newTestJWTManager(t)
	pair, err := m.GenerateTokenPair(9, "pilot@example.com")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	NewMiddleware(m, nil).Authenticate(principalEcho()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestPrincipalFromContext_Empty(t *testing.T) {
	t.Parallel()
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Error("expected no principal")
	}
	ctx := WithPrincipal(context.Background(), &Principal{UserID: 3})
	if p, ok := PrincipalFromContext(ctx); !ok || p.UserID != 3 {
		t.Errorf("PrincipalFromContext() = %+v, %v", p, ok)
	}
}
