// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

//go:build !nats

package eventprocessor

import "context"

// EnsureMissionStream returns ErrNATSNotEnabled.
func EnsureMissionStream(_ context.Context, _ string, _ StreamConfig) error {
	return ErrNATSNotEnabled
}
