// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

/*
Package middleware provides chi-compatible HTTP middleware shared by every
route group.

Key Components:

  - RequestID: X-Request-ID propagation into the response, the request
    context and the logging context
  - PrometheusMetrics: request counters, latency histograms and the in-flight
    gauge, labelled by chi route pattern
  - AccessLog: one structured log line per request

Typical stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)

All wrappers use chi's WrapResponseWriter so websocket upgrades can still
hijack the connection.
*/
package middleware
