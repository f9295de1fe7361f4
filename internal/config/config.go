// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package config

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Security   SecurityConfig   `koanf:"security"`
	Mission    MissionConfig    `koanf:"mission"`
	WebSocket  WebSocketConfig  `koanf:"websocket"`
	NATS       NATSConfig       `koanf:"nats"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Environment     string        `koanf:"environment"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// DatabaseConfig selects and tunes the persistence driver.
//
// URL takes the SQLAlchemy-style form used by older deployments
// (sqlite:///./app.db). When set it overrides Driver, Path and DSN.
type DatabaseConfig struct {
	URL    string `koanf:"url"`
	Driver string `koanf:"driver"` // duckdb, sqlite or postgres
	Path   string `koanf:"path"`   // file path for duckdb and sqlite, ":memory:" allowed
	DSN    string `koanf:"dsn"`    // postgres connection string

	// DuckDB tuning
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()

	// Pool sizing; max_open_conns also caps the duckdb pool
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MinConns        int           `koanf:"min_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

// SecurityConfig holds token and password settings.
type SecurityConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	Issuer          string        `koanf:"issuer"`
	AccessTokenTTL  time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl"`
	BcryptCost      int           `koanf:"bcrypt_cost"`

	// Per-IP login throttle (token bucket), on top of the route rate limit.
	LoginRatePerMinute int `koanf:"login_rate_per_minute"`
	LoginBurst         int `koanf:"login_burst"`
}

// MissionConfig drives the mission runners.
type MissionConfig struct {
	TickInterval time.Duration    `koanf:"tick_interval"`
	TickBudget   int              `koanf:"tick_budget"` // 0 = run until stopped
	Simulation   SimulationConfig `koanf:"simulation"`
}

// SimulationConfig parameterises the synthetic telemetry source.
type SimulationConfig struct {
	BaseLat              float64 `koanf:"base_lat"`
	BaseLon              float64 `koanf:"base_lon"`
	BaseAlt              float64 `koanf:"base_alt"`
	CoordJitter          float64 `koanf:"coord_jitter"`
	AltJitter            float64 `koanf:"alt_jitter"`
	BatteryMin           int     `koanf:"battery_min"`
	BatteryMax           int     `koanf:"battery_max"`
	DetectionProbability float64 `koanf:"detection_probability"`
	DetectionLabel       string  `koanf:"detection_label"`
	ScoreMin             float64 `koanf:"score_min"`
	ScoreMax             float64 `koanf:"score_max"`
}

// WebSocketConfig tunes the live channel.
type WebSocketConfig struct {
	SendBuffer     int           `koanf:"send_buffer"`
	WriteWait      time.Duration `koanf:"write_wait"`
	PongWait       time.Duration `koanf:"pong_wait"`
	MaxMessageSize int64         `koanf:"max_message_size"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
}

// NATSConfig controls the optional mission event mirror.
type NATSConfig struct {
	Enabled             bool   `koanf:"enabled"`
	EmbeddedServer      bool   `koanf:"embedded_server"`
	URL                 string `koanf:"url"`
	StoreDir            string `koanf:"store_dir"`
	MaxMemory           int64  `koanf:"max_memory"`
	MaxStore            int64  `koanf:"max_store"`
	StreamRetentionDays int    `koanf:"stream_retention_days"`
	SubjectPrefix       string `koanf:"subject_prefix"`
	ForwardQueueSize    int    `koanf:"forward_queue_size"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig configures the suture tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load reads configuration from defaults, the optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
