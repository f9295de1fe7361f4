// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package eventprocessor

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/tomtom215/skysurvey/internal/config"
)

const (
	// StreamName is the JetStream stream holding mirrored mission events.
	StreamName = "MISSION_EVENTS"

	// DefaultSubjectPrefix is the first subject token of every mirrored event.
	DefaultSubjectPrefix = "missions"

	defaultNATSPort = 4222
)

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// PublisherConfig holds settings for the watermill-nats publisher.
type PublisherConfig struct {
	URL              string
	SubjectPrefix    string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool
}

// StreamConfig describes the JetStream stream created at startup.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// CircuitBreakerConfig holds gobreaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// ForwarderConfig sizes the mirror queue.
type ForwarderConfig struct {
	SubjectPrefix  string
	QueueSize      int
	PublishTimeout time.Duration
	DrainTimeout   time.Duration
}

// Config bundles everything the mirror needs.
type Config struct {
	Server         ServerConfig
	Publisher      PublisherConfig
	Stream         StreamConfig
	CircuitBreaker CircuitBreakerConfig
	Forwarder      ForwarderConfig
}

// DefaultCircuitBreakerConfig trips after five consecutive failures and
// tries again after ten seconds.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// DefaultForwarderConfig returns the queue settings used when none are given.
func DefaultForwarderConfig() ForwarderConfig {
	return ForwarderConfig{
		QueueSize:      1024,
		PublishTimeout: 5 * time.Second,
		DrainTimeout:   2 * time.Second,
	}
}

// ConfigFrom derives the mirror configuration from the application config.
func ConfigFrom(cfg *config.NATSConfig) (Config, error) {
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	host, port, err := splitNATSURL(cfg.URL)
	if err != nil {
		return Config{}, err
	}

	retention := cfg.StreamRetentionDays
	if retention < 1 {
		retention = 7
	}

	fwd := DefaultForwarderConfig()
	fwd.SubjectPrefix = prefix
	if cfg.ForwardQueueSize > 0 {
		fwd.QueueSize = cfg.ForwardQueueSize
	}

	return Config{
		Server: ServerConfig{
			Host:              host,
			Port:              port,
			StoreDir:          cfg.StoreDir,
			JetStreamMaxMem:   cfg.MaxMemory,
			JetStreamMaxStore: cfg.MaxStore,
		},
		Publisher: PublisherConfig{
			URL:              cfg.URL,
			SubjectPrefix:    prefix,
			MaxReconnects:    -1,
			ReconnectWait:    2 * time.Second,
			ReconnectBuffer:  8 * 1024 * 1024,
			EnableTrackMsgID: true,
		},
		Stream: StreamConfig{
			Name:            StreamName,
			Subjects:        []string{prefix + ".>"},
			MaxAge:          time.Duration(retention) * 24 * time.Hour,
			MaxBytes:        cfg.MaxStore,
			MaxMsgs:         -1,
			DuplicateWindow: 2 * time.Minute,
			Replicas:        1,
		},
		CircuitBreaker: DefaultCircuitBreakerConfig("nats-publisher"),
		Forwarder:      fwd,
	}, nil
}

// splitNATSURL extracts the listen address for the embedded server from the
// client URL.
func splitNATSURL(raw string) (string, int, error) {
	if raw == "" {
		return "127.0.0.1", defaultNATSPort, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, fmt.Errorf("parse NATS URL: %w", err)
	}
	if u.Scheme != "nats" && u.Scheme != "tls" {
		return "", 0, fmt.Errorf("NATS URL %q: unsupported scheme %q", raw, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		host = "127.0.0.1"
	}
	port := defaultNATSPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return "", 0, fmt.Errorf("NATS URL %q: invalid port", raw)
		}
	}
	return host, port, nil
}

// Addr returns host:port for logging.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
