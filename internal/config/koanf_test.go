// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverDuckDB {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}
	if cfg.Mission.TickInterval != time.Second {
		t.Errorf("Mission.TickInterval = %v, want 1s", cfg.Mission.TickInterval)
	}
	if cfg.Mission.TickBudget != 60 {
		t.Errorf("Mission.TickBudget = %d, want 60", cfg.Mission.TickBudget)
	}
	sim := cfg.Mission.Simulation
	if sim.BaseLat != 48.2 || sim.BaseLon != 16.37 || sim.BaseAlt != 10 {
		t.Errorf("simulation base = (%v, %v, %v), want (48.2, 16.37, 10)", sim.BaseLat, sim.BaseLon, sim.BaseAlt)
	}
	if sim.DetectionProbability != 0.1 || sim.DetectionLabel != "plastic" {
		t.Errorf("detection defaults = (%v, %q)", sim.DetectionProbability, sim.DetectionLabel)
	}
	if cfg.Security.AccessTokenTTL != 24*time.Hour || cfg.Security.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("token ttls = %v / %v", cfg.Security.AccessTokenTTL, cfg.Security.RefreshTokenTTL)
	}
	if cfg.NATS.Enabled {
		t.Error("NATS should be disabled by default")
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Security.JWTSecret == "" {
		t.Error("development load should generate a signing secret")
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("MISSION_TICK_INTERVAL", "250ms")
	t.Setenv("MISSION_TICK_BUDGET", "0")
	t.Setenv("SECRET_KEY", "an-env-provided-secret-that-is-long-enough")
	t.Setenv("CORS_ORIGINS", "https://a.example.org, https://b.example.org")
	t.Setenv("DATABASE_URL", "sqlite:///./app.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Mission.TickInterval != 250*time.Millisecond {
		t.Errorf("TickInterval = %v", cfg.Mission.TickInterval)
	}
	if cfg.Mission.TickBudget != 0 {
		t.Errorf("TickBudget = %d, want 0", cfg.Mission.TickBudget)
	}
	if cfg.Security.JWTSecret != "an-env-provided-secret-that-is-long-enough" {
		t.Errorf("JWTSecret not taken from SECRET_KEY")
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example.org" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Database.Path != "./app.db" {
		t.Errorf("database = %s %s", cfg.Database.Driver, cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadWithKoanf_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7000
mission:
  tick_budget: 5
  simulation:
    detection_label: debris
database:
  driver: sqlite
  path: ":memory:"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("env should win over file, got port %d", cfg.Server.Port)
	}
	if cfg.Mission.TickBudget != 5 {
		t.Errorf("TickBudget = %d, want 5", cfg.Mission.TickBudget)
	}
	if cfg.Mission.Simulation.DetectionLabel != "debris" {
		t.Errorf("DetectionLabel = %q", cfg.Mission.Simulation.DetectionLabel)
	}
	if cfg.Mission.Simulation.BaseLat != 48.2 {
		t.Errorf("unset file keys should keep defaults, BaseLat = %v", cfg.Mission.Simulation.BaseLat)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Database.Path != ":memory:" {
		t.Errorf("database = %s %s", cfg.Database.Driver, cfg.Database.Path)
	}
}

func TestLoadWithKoanf_ProductionRequiresSecret(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("ENVIRONMENT", "production")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("expected error without SECRET_KEY in production")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"HTTP_PORT":           "server.port",
		"DATABASE_URL":        "database.url",
		"SECRET_KEY":          "security.jwt_secret",
		"MISSION_TICK_BUDGET": "mission.tick_budget",
		"NATS_ENABLED":        "nats.enabled",
		"PATH":                "",
		"HOME":                "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
