// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

// Package cache provides a small thread-safe LRU cache with per-entry TTL.
//
// It backs short-lived lookups on the request path, such as confirming that
// a token subject still exists, so that hot callers do not reach the
// database on every request. Expiry is lazy: entries are checked on read and
// CleanupExpired can be called to sweep the rest.
package cache
