// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package eventprocessor

import "errors"

var (
	// ErrNATSNotEnabled is returned by the stub implementations when the
	// binary was built without the nats tag.
	ErrNATSNotEnabled = errors.New("NATS support not available: build with -tags nats")

	// ErrPublisherClosed is returned when publishing after Close.
	ErrPublisherClosed = errors.New("publisher is closed")

	// ErrInvalidEvent is returned for envelopes that fail validation.
	ErrInvalidEvent = errors.New("invalid mission event")
)
