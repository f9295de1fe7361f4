// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skysurvey/internal/auth"
	"github.com/tomtom215/skysurvey/internal/config"
	"github.com/tomtom215/skysurvey/internal/database"
	"github.com/tomtom215/skysurvey/internal/mission"
	"github.com/tomtom215/skysurvey/internal/models"
	"github.com/tomtom215/skysurvey/internal/websocket"
)

const testPassword = "Survey-Pass-42"

// testEnv is a full stack on an in-memory sqlite store.
type testEnv struct {
	cfg     *config.Config
	db      *database.DB
	hub     *websocket.Hub
	manager *mission.Manager
	jwt     *auth.JWTManager
	server  *httptest.Server
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			RateLimitDisabled: true,
			CORSOrigins:       []string{"http://localhost:5173"},
		},
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		Security: config.SecurityConfig{
			JWTSecret:       "api-test-secret-with-enough-length-1234",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
			BcryptCost:      4,
		},
		Mission: config.MissionConfig{
			TickInterval: 20 * time.Millisecond,
			Simulation: config.SimulationConfig{
				BaseLat:              48.2,
				BaseLon:              16.37,
				BaseAlt:              10,
				CoordJitter:          0.001,
				AltJitter:            1,
				BatteryMin:           50,
				BatteryMax:           100,
				DetectionProbability: 0.5,
				DetectionLabel:       "plastic",
				ScoreMin:             0.70,
				ScoreMax:             0.98,
			},
		},
		WebSocket: config.WebSocketConfig{SendBuffer: 64},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig()

	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	hub := websocket.NewHub(cfg.WebSocket.SendBuffer)
	manager := mission.NewManager(db, hub, cfg.Mission)
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	handler := NewHandler(db, manager, hub, jwtManager, cfg, WithVersion("test"))
	router := NewRouter(handler, auth.NewMiddleware(jwtManager, db), nil,
		NewChiMiddleware(ChiMiddlewareConfigFrom(&cfg.Server)))
	server := httptest.NewServer(router.Setup())

	t.Cleanup(func() {
		server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = manager.Shutdown(ctx)
		_ = db.Close()
	})

	return &testEnv{cfg: cfg, db: db, hub: hub, manager: manager, jwt: jwtManager, server: server}
}

// user creates an account directly in the store and returns an access
// token for it.
func (e *testEnv) user(t *testing.T, email string) (*models.User, string) {
	t.Helper()
	hash, err := auth.HashPassword(testPassword, 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	u, err := e.db.CreateUser(context.Background(), email, hash)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	pair, err := e.jwt.GenerateTokenPair(u.ID, u.Email)
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}
	return u, pair.AccessToken
}

// envelope is the decoded response wrapper.
type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

// do sends a request and returns the status and decoded envelope. Bodies
// that are not an envelope leave it zero.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, envelope, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			reader = bytes.NewReader(data)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	var env envelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp.StatusCode, env, raw
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func twoPointJourney(name string) map[string]interface{} {
	return map[string]interface{}{
		"name": name,
		"points": []map[string]interface{}{
			{"seq": 0, "lat": 48.2, "lon": 16.37},
			{"seq": 1, "lat": 48.21, "lon": 16.38, "alt": 30.0},
		},
	}
}

// createJourney posts a journey and returns its id.
func (e *testEnv) createJourney(t *testing.T, token, name string) int64 {
	t.Helper()
	status, env, raw := e.do(t, http.MethodPost, "/api/v1/journeys", token, twoPointJourney(name))
	if status != http.StatusCreated {
		t.Fatalf("create journey status = %d, body %s", status, raw)
	}
	var j models.Journey
	decodeData(t, env, &j)
	return j.ID
}

// createMission posts a mission for journeyID and returns it.
func (e *testEnv) createMission(t *testing.T, token string, journeyID int64, start bool) MissionView {
	t.Helper()
	status, env, raw := e.do(t, http.MethodPost, "/api/v1/missions", token,
		map[string]interface{}{"journey_id": journeyID, "start": start})
	if status != http.StatusCreated {
		t.Fatalf("create mission status = %d, body %s", status, raw)
	}
	var m MissionView
	decodeData(t, env, &m)
	return m
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout: %s", msg)
}
