// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
exposed at /metrics in Prometheus text format:

	curl http://localhost:8000/metrics

# Available Metrics

HTTP Metrics:
  - api_requests_total: Total HTTP requests (counter)
    Labels: method, endpoint, status
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)

Database Metrics:
  - db_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - db_query_errors_total: Failed queries (counter)
    Labels: operation, table

Mission Metrics:
  - missions_started_total, missions_finished_total{state}
  - mission_ticks_total, mission_active
  - mission_events_published_total{type}
  - detections_persisted_total, detection_persist_failures_total

Live Channel Metrics:
  - hub_subscribers: Open live channel subscriptions (gauge)
  - hub_subscribers_dropped_total: Subscribers removed for being slow or closed

NATS Metrics:
  - nats_publish_total{result}: Mirror publishes (success, failure, rejected)
  - nats_forward_dropped_total: Events dropped because the forward queue was full
  - nats_forward_queue_depth: Current forward queue length (gauge)
  - circuit_breaker_state{name}: 0 closed, 1 half-open, 2 open

Auth Metrics:
  - auth_attempts_total{operation, result}
*/
package metrics
