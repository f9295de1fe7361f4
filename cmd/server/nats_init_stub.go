// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

//go:build !nats

package main

import (
	"context"

	"github.com/tomtom215/skysurvey/internal/config"
	"github.com/tomtom215/skysurvey/internal/eventprocessor"
	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/mission"
	ws "github.com/tomtom215/skysurvey/internal/websocket"
)

// NATSComponents is empty in builds without the nats tag.
type NATSComponents struct{}

// InitNATS only warns: the mirror is not compiled in.
func InitNATS(_ context.Context, cfg *config.Config, _ *ws.Hub) (*NATSComponents, error) {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("NATS_ENABLED=true but NATS support not compiled (build with -tags nats)")
	}
	return nil, nil
}

// Broadcaster returns hub.
func (c *NATSComponents) Broadcaster(hub *ws.Hub) mission.Broadcaster {
	return hub
}

// Forwarder returns nil.
func (c *NATSComponents) Forwarder() *eventprocessor.Forwarder {
	return nil
}

// Healthy returns false.
func (c *NATSComponents) Healthy() bool {
	return false
}

// Shutdown is a no-op.
func (c *NATSComponents) Shutdown(_ context.Context) {}
