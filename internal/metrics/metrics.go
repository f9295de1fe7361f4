// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"operation", "table"},
	)

	// Mission Metrics
	MissionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "missions_started_total",
			Help: "Total number of mission runners started",
		},
	)

	MissionsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missions_finished_total",
			Help: "Total number of mission runners that exited, by final state",
		},
		[]string{"state"}, // stopped, completed, failed
	)

	MissionTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mission_ticks_total",
			Help: "Total number of simulation ticks across all missions",
		},
	)

	MissionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mission_active",
			Help: "Number of missions with a running runner",
		},
	)

	MissionEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mission_events_published_total",
			Help: "Total number of events published to the live channel",
		},
		[]string{"type"},
	)

	DetectionsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detections_persisted_total",
			Help: "Total number of detections written by mission runners",
		},
	)

	DetectionPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detection_persist_failures_total",
			Help: "Total number of detections that could not be written",
		},
	)

	// Live Channel Metrics
	HubSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_subscribers",
			Help: "Current number of live channel subscriptions",
		},
	)

	HubSubscribersDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_subscribers_dropped_total",
			Help: "Total number of subscribers removed because delivery failed",
		},
	)

	// NATS Metrics
	NATSPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_publish_total",
			Help: "Total number of mission events mirrored to NATS, by result",
		},
		[]string{"result"}, // success, failure, rejected
	)

	NATSForwardDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_forward_dropped_total",
			Help: "Total number of mission events dropped because the forward queue was full",
		},
	)

	NATSForwardQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nats_forward_queue_depth",
			Help: "Current number of mission events waiting to be mirrored",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Auth Metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"operation", "result"}, // login|refresh|signup|token, success|failure
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordMissionStarted counts a runner start.
func RecordMissionStarted() {
	MissionsStarted.Inc()
	MissionActive.Inc()
}

// RecordMissionFinished counts a runner exit in its final state.
func RecordMissionFinished(state string) {
	MissionsFinished.WithLabelValues(state).Inc()
	MissionActive.Dec()
}

// RecordMissionTick counts one simulation tick.
func RecordMissionTick() {
	MissionTicks.Inc()
}

// RecordEventPublished counts an event handed to the live channel.
func RecordEventPublished(eventType string) {
	MissionEventsPublished.WithLabelValues(eventType).Inc()
}

// RecordDetectionPersist counts a detection write attempt.
func RecordDetectionPersist(err error) {
	if err != nil {
		DetectionPersistFailures.Inc()
		return
	}
	DetectionsPersisted.Inc()
}

// SetHubSubscribers updates the live channel subscriber gauge.
func SetHubSubscribers(n int) {
	HubSubscribers.Set(float64(n))
}

// RecordSubscriberDropped counts a subscriber removed during dispatch.
func RecordSubscriberDropped() {
	HubSubscribersDropped.Inc()
}

// RecordNATSPublish counts a mirror publish by result.
func RecordNATSPublish(result string) {
	NATSPublishTotal.WithLabelValues(result).Inc()
}

// RecordNATSForwardDropped counts an event dropped before it reached NATS.
func RecordNATSForwardDropped() {
	NATSForwardDropped.Inc()
}

// UpdateNATSForwardQueueDepth reports the forward queue length.
func UpdateNATSForwardQueueDepth(depth int) {
	NATSForwardQueueDepth.Set(float64(depth))
}

// RecordAuthAttempt counts an authentication attempt.
func RecordAuthAttempt(operation string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	AuthAttempts.WithLabelValues(operation, result).Inc()
}
