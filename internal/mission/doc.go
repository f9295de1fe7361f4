// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

// Package mission runs simulated drone missions.
//
// A Manager owns at most one Runner per mission id. Each Runner is a
// goroutine with its own cancel function; on every tick it asks a
// telemetry.Source for a sample, publishes it, and persists then publishes
// any detection. Operator commands reach the Manager, which stops the runner
// for terminal commands and ignores the rest.
//
// Runners never propagate errors. A persistence failure on a detection is
// logged and counted, a panic inside a tick is recovered, and only failing
// to acquire a session at startup ends the runner early in the Failed
// state. Every runner removes its own registry entry exactly once on exit,
// and only when the entry still belongs to it, so a quick stop/start cannot
// evict the new runner.
package mission
