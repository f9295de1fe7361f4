// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

//go:build !nats

package eventprocessor

import (
	"context"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Publisher is unavailable without the nats build tag.
type Publisher struct{}

// NewPublisher returns ErrNATSNotEnabled.
func NewPublisher(_ PublisherConfig, _ any) (*Publisher, error) {
	return nil, ErrNATSNotEnabled
}

// SetCircuitBreaker is a no-op.
func (p *Publisher) SetCircuitBreaker(_ *gobreaker.CircuitBreaker[any]) {}

// PublishEvent returns ErrNATSNotEnabled.
func (p *Publisher) PublishEvent(_ context.Context, _ *MissionEvent) error {
	return ErrNATSNotEnabled
}

// Close is a no-op.
func (p *Publisher) Close() error { return nil }
