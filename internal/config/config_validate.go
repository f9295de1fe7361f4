// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateSecurity,
		c.validateMission,
		c.validateWebSocket,
		c.validateNATS,
		c.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Server.RateLimitWindow < time.Second {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
		}
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB, DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for the %s driver", c.Database.Driver)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN or DATABASE_URL is required for the postgres driver")
		}
		if c.Database.MaxOpenConns < 1 {
			return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be one of: duckdb, sqlite, postgres")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := c.Security
	if c.IsProduction() {
		if len(s.JWTSecret) < 32 {
			return fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
		}
		if containsPlaceholder(s.JWTSecret) {
			return fmt.Errorf("SECRET_KEY contains a placeholder value - generate one with: openssl rand -base64 32")
		}
	}
	if s.JWTSecret == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if s.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if s.RefreshTokenTTL < s.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL must not be shorter than ACCESS_TOKEN_TTL")
	}
	if s.BcryptCost < 4 || s.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	return nil
}

func (c *Config) validateMission() error {
	m := c.Mission
	if m.TickInterval < 10*time.Millisecond {
		return fmt.Errorf("MISSION_TICK_INTERVAL must be at least 10ms")
	}
	if m.TickBudget < 0 {
		return fmt.Errorf("MISSION_TICK_BUDGET must not be negative")
	}

	sim := m.Simulation
	if sim.CoordJitter < 0 || sim.AltJitter < 0 {
		return fmt.Errorf("simulation jitter must not be negative")
	}
	if sim.BatteryMin < 0 || sim.BatteryMax > 100 || sim.BatteryMin > sim.BatteryMax {
		return fmt.Errorf("simulation battery range must satisfy 0 <= min <= max <= 100")
	}
	if sim.DetectionProbability < 0 || sim.DetectionProbability > 1 {
		return fmt.Errorf("SIM_DETECTION_PROBABILITY must be between 0 and 1")
	}
	if sim.ScoreMin < 0 || sim.ScoreMax > 1 || sim.ScoreMin > sim.ScoreMax {
		return fmt.Errorf("simulation score range must satisfy 0 <= min <= max <= 1")
	}
	if strings.TrimSpace(sim.DetectionLabel) == "" {
		return fmt.Errorf("SIM_DETECTION_LABEL must not be empty")
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	if c.WebSocket.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1")
	}
	if c.WebSocket.PongWait <= 0 || c.WebSocket.WriteWait <= 0 {
		return fmt.Errorf("WS_PONG_WAIT and WS_WRITE_WAIT must be positive")
	}
	if c.WebSocket.MaxMessageSize < 1 {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be positive")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if !c.NATS.EmbeddedServer {
		if err := validateNATSURL(c.NATS.URL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	}
	if c.NATS.StreamRetentionDays < 1 {
		return fmt.Errorf("NATS_RETENTION_DAYS must be at least 1")
	}
	if c.NATS.ForwardQueueSize < 1 {
		return fmt.Errorf("NATS_FORWARD_QUEUE must be at least 1")
	}
	if strings.TrimSpace(c.NATS.SubjectPrefix) == "" {
		return fmt.Errorf("NATS_SUBJECT_PREFIX must not be empty")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns catch secrets copied verbatim from example configs.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"SUPERSECRET",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
