// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	_ "github.com/tomtom215/skysurvey/docs"
	"github.com/tomtom215/skysurvey/internal/models"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	status, resp, raw := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %s", status, raw)
	}
	var h models.HealthStatus
	decodeData(t, resp, &h)
	if h.Status != "healthy" || !h.DatabaseConnected || h.DatabaseDriver != "sqlite" || h.Version != "test" {
		t.Errorf("health = %+v", h)
	}
	if h.ActiveMissions != 0 || h.LiveSubscribers != 0 {
		t.Errorf("idle server reports activity: %+v", h)
	}

	_, token := env.user(t, "pilot@example.com")
	env.createMission(t, token, env.createJourney(t, token, "route"), true)
	_, resp, _ = env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	decodeData(t, resp, &h)
	if h.ActiveMissions != 1 {
		t.Errorf("active_missions = %d, want 1", h.ActiveMissions)
	}

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		if status, _, _ := env.do(t, http.MethodGet, path, "", nil); status != http.StatusOK {
			t.Errorf("%s status = %d", path, status)
		}
	}
}

func TestHealthReady_DatabaseDown(t *testing.T) {
	env := newTestEnv(t)
	_ = env.db.Close()

	status, resp, _ := env.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	if status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", status)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeUnavailable {
		t.Errorf("error = %+v", resp.Error)
	}

	var h models.HealthStatus
	_, resp, _ = env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	decodeData(t, resp, &h)
	if h.Status != "degraded" || h.DatabaseConnected {
		t.Errorf("health = %+v", h)
	}
}

func TestSwaggerDocs(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/swagger/doc.json")
	if err != nil {
		t.Fatalf("GET doc.json error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("doc.json status = %d", resp.StatusCode)
	}
	var doc struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("doc.json is not JSON: %v", err)
	}
	if doc.BasePath != "/api/v1" {
		t.Errorf("basePath = %q", doc.BasePath)
	}
	for _, path := range []string{"/auth/login", "/journeys", "/missions/{id}/start", "/missions/{id}/command", "/missions/ws/{id}", "/detections"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("doc.json missing path %s", path)
		}
	}

	ui, err := http.Get(env.server.URL + "/swagger/index.html")
	if err != nil {
		t.Fatalf("GET index.html error = %v", err)
	}
	defer ui.Body.Close()
	if ui.StatusCode != http.StatusOK {
		t.Errorf("index.html status = %d", ui.StatusCode)
	}
}

func TestRouter_GlobalMiddleware(t *testing.T) {
	env := newTestEnv(t)

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if got := res.Header.Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
	if res.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	// CORS preflight is answered for configured origins.
	req, _ = http.NewRequest(http.MethodOptions, env.server.URL+"/api/v1/journeys", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	res, err = http.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("/metrics status = %d", res.StatusCode)
	}

	status, resp, _ := env.do(t, http.MethodGet, "/nowhere", "", nil)
	if status != http.StatusNotFound || resp.Error == nil {
		t.Errorf("unknown route: status = %d, error = %+v", status, resp.Error)
	}
}

func TestRateLimitCustom(t *testing.T) {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{})
	limited := mw.RateLimitCustom(RateLimitConfig{Requests: 1, Window: time.Minute})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	call := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/journeys", nil)
		r.RemoteAddr = "203.0.113.9:4000"
		limited.ServeHTTP(w, r)
		return w
	}

	if w := call(); w.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", w.Code)
	}
	w := call()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if !strings.Contains(w.Body.String(), models.ErrCodeRateLimited) {
		t.Errorf("body = %s", w.Body.String())
	}

	disabled := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	if got := disabled.RateLimitCustom(RateLimitConfig{Requests: 1, Window: time.Minute})(next); got == nil {
		t.Error("disabled limiter returned nil handler")
	}
}
