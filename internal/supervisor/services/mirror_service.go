// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package services

import (
	"context"
	"fmt"
)

// EventForwarder drains the NATS mirror queue until its context ends.
type EventForwarder interface {
	Serve(ctx context.Context) error
	Healthy() bool
}

// EventMirrorService supervises the NATS event forwarder in the messaging
// layer. The runner keeps publishing to the live channel while it restarts.
type EventMirrorService struct {
	forwarder EventForwarder
}

// NewEventMirrorService wraps forwarder.
func NewEventMirrorService(forwarder EventForwarder) *EventMirrorService {
	return &EventMirrorService{forwarder: forwarder}
}

// Serve implements suture.Service.
func (e *EventMirrorService) Serve(ctx context.Context) error {
	err := e.forwarder.Serve(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("event forwarder failed: %w", err)
	}
	return err
}

// Healthy reports whether the forwarder loop is running.
func (e *EventMirrorService) Healthy() bool {
	return e.forwarder.Healthy()
}

func (e *EventMirrorService) String() string {
	return "event-mirror"
}
