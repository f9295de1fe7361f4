// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/skysurvey/config.yaml",
	"/etc/skysurvey/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// Defaults returns the built-in configuration without file or environment layers.
func Defaults() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8000,
			Environment:       "development",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Database: DatabaseConfig{
			Driver:          "duckdb",
			Path:            "/data/skysurvey.duckdb",
			MaxMemory:       "1GB",
			Threads:         0,
			MaxOpenConns:    10,
			MinConns:        2,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
		},
		Security: SecurityConfig{
			Issuer:             "skysurvey",
			AccessTokenTTL:     24 * time.Hour,
			RefreshTokenTTL:    7 * 24 * time.Hour,
			BcryptCost:         12,
			LoginRatePerMinute: 10,
			LoginBurst:         5,
		},
		Mission: MissionConfig{
			TickInterval: time.Second,
			TickBudget:   60,
			Simulation: SimulationConfig{
				BaseLat:              48.2,
				BaseLon:              16.37,
				BaseAlt:              10,
				CoordJitter:          0.001,
				AltJitter:            1,
				BatteryMin:           50,
				BatteryMax:           100,
				DetectionProbability: 0.1,
				DetectionLabel:       "plastic",
				ScoreMin:             0.70,
				ScoreMax:             0.98,
			},
		},
		WebSocket: WebSocketConfig{
			SendBuffer:     256,
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
			MaxMessageSize: 64 * 1024,
			AllowedOrigins: []string{"*"},
		},
		NATS: NATSConfig{
			Enabled:             false,
			EmbeddedServer:      true,
			URL:                 "nats://127.0.0.1:4222",
			StoreDir:            "/data/nats/jetstream",
			MaxMemory:           256 << 20,
			MaxStore:            1 << 30,
			StreamRetentionDays: 7,
			SubjectPrefix:       "missions",
			ForwardQueueSize:    1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf layers defaults, the config file and the environment.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// finalize resolves derived values: DATABASE_URL into driver settings and,
// outside production, a throwaway signing secret when none was configured.
func (c *Config) finalize() error {
	if c.Database.URL != "" {
		driver, target, err := ParseDatabaseURL(c.Database.URL)
		if err != nil {
			return fmt.Errorf("DATABASE_URL is invalid: %w", err)
		}
		c.Database.Driver = driver
		if driver == DriverPostgres {
			c.Database.DSN = target
		} else {
			c.Database.Path = target
		}
	}

	if c.Security.JWTSecret == "" && !c.IsProduction() {
		secret, err := randomSecret(32)
		if err != nil {
			return fmt.Errorf("generate development secret: %w", err)
		}
		c.Security.JWTSecret = secret
	}
	return nil
}

func randomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma separated strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"websocket.allowed_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"environment":           "server.environment",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Database
	"database_url":          "database.url",
	"db_driver":             "database.driver",
	"db_path":               "database.path",
	"duckdb_path":           "database.path",
	"db_dsn":                "database.dsn",
	"duckdb_max_memory":     "database.max_memory",
	"duckdb_threads":        "database.threads",
	"db_max_open_conns":     "database.max_open_conns",
	"db_min_conns":          "database.min_conns",
	"db_conn_max_lifetime":  "database.conn_max_lifetime",
	"db_conn_max_idle_time": "database.conn_max_idle_time",

	// Security
	"secret_key":            "security.jwt_secret",
	"jwt_secret":            "security.jwt_secret",
	"jwt_issuer":            "security.issuer",
	"access_token_ttl":      "security.access_token_ttl",
	"refresh_token_ttl":     "security.refresh_token_ttl",
	"bcrypt_cost":           "security.bcrypt_cost",
	"login_rate_per_minute": "security.login_rate_per_minute",
	"login_burst":           "security.login_burst",

	// Mission
	"mission_tick_interval":     "mission.tick_interval",
	"mission_tick_budget":       "mission.tick_budget",
	"sim_base_lat":              "mission.simulation.base_lat",
	"sim_base_lon":              "mission.simulation.base_lon",
	"sim_base_alt":              "mission.simulation.base_alt",
	"sim_coord_jitter":          "mission.simulation.coord_jitter",
	"sim_alt_jitter":            "mission.simulation.alt_jitter",
	"sim_detection_probability": "mission.simulation.detection_probability",
	"sim_detection_label":       "mission.simulation.detection_label",

	// WebSocket
	"ws_send_buffer":      "websocket.send_buffer",
	"ws_write_wait":       "websocket.write_wait",
	"ws_pong_wait":        "websocket.pong_wait",
	"ws_max_message_size": "websocket.max_message_size",
	"ws_allowed_origins":  "websocket.allowed_origins",

	// NATS
	"nats_enabled":        "nats.enabled",
	"nats_embedded":       "nats.embedded_server",
	"nats_url":            "nats.url",
	"nats_store_dir":      "nats.store_dir",
	"nats_max_memory":     "nats.max_memory",
	"nats_max_store":      "nats.max_store",
	"nats_retention_days": "nats.stream_retention_days",
	"nats_subject_prefix": "nats.subject_prefix",
	"nats_forward_queue":  "nats.forward_queue_size",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
