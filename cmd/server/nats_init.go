// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

//go:build nats

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/skysurvey/internal/config"
	"github.com/tomtom215/skysurvey/internal/eventprocessor"
	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/mission"
	ws "github.com/tomtom215/skysurvey/internal/websocket"
)

// NATSComponents owns the event mirror's lifecycle. A nil *NATSComponents
// means the mirror is disabled; every method handles that.
type NATSComponents struct {
	server    *eventprocessor.EmbeddedServer
	publisher *eventprocessor.Publisher
	forwarder *eventprocessor.Forwarder
}

// InitNATS starts the embedded server when configured, ensures the
// MISSION_EVENTS stream, and builds the forwarder in front of hub.
func InitNATS(ctx context.Context, cfg *config.Config, hub *ws.Hub) (*NATSComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS event mirror disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	epCfg, err := eventprocessor.ConfigFrom(&cfg.NATS)
	if err != nil {
		return nil, fmt.Errorf("nats config: %w", err)
	}

	c := &NATSComponents{}
	url := epCfg.Publisher.URL

	if cfg.NATS.EmbeddedServer {
		c.server, err = eventprocessor.NewEmbeddedServer(&epCfg.Server)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		url = c.server.ClientURL()
		epCfg.Publisher.URL = url
		logging.Info().
			Str("addr", epCfg.Server.Addr()).
			Str("store_dir", epCfg.Server.StoreDir).
			Msg("Embedded NATS server started")
	}

	streamCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := eventprocessor.EnsureMissionStream(streamCtx, url, epCfg.Stream); err != nil {
		c.Shutdown(context.Background())
		return nil, fmt.Errorf("ensure %s stream: %w", epCfg.Stream.Name, err)
	}

	c.publisher, err = eventprocessor.NewPublisher(epCfg.Publisher, logging.NewWatermillAdapter())
	if err != nil {
		c.Shutdown(context.Background())
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	c.publisher.SetCircuitBreaker(eventprocessor.NewCircuitBreaker(epCfg.CircuitBreaker))

	c.forwarder, err = eventprocessor.NewForwarder(hub, c.publisher, epCfg.Forwarder)
	if err != nil {
		c.Shutdown(context.Background())
		return nil, err
	}

	logging.Info().
		Str("url", url).
		Str("stream", epCfg.Stream.Name).
		Strs("subjects", epCfg.Stream.Subjects).
		Int("queue_size", epCfg.Forwarder.QueueSize).
		Msg("NATS event mirror initialized")
	return c, nil
}

// Broadcaster returns what runners publish to: the forwarder when the mirror
// is on, otherwise the hub itself.
func (c *NATSComponents) Broadcaster(hub *ws.Hub) mission.Broadcaster {
	if c == nil || c.forwarder == nil {
		return hub
	}
	return c.forwarder
}

// Forwarder returns the forwarder for supervision, or nil.
func (c *NATSComponents) Forwarder() *eventprocessor.Forwarder {
	if c == nil {
		return nil
	}
	return c.forwarder
}

// Healthy reports the mirror state for the health endpoint.
func (c *NATSComponents) Healthy() bool {
	if c == nil || c.forwarder == nil {
		return false
	}
	if c.server != nil && !c.server.IsRunning() {
		return false
	}
	return c.forwarder.Healthy()
}

// Shutdown closes the publisher and stops the embedded server. It runs
// after the supervisor tree has stopped the forwarder.
func (c *NATSComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing NATS publisher")
		}
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Error stopping embedded NATS server")
		}
	}
}
