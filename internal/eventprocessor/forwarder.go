// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package eventprocessor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/metrics"
	"github.com/tomtom215/skysurvey/internal/telemetry"
)

// LocalBroadcaster is the in-process live channel, normally the websocket Hub.
type LocalBroadcaster interface {
	Publish(missionID int64, event telemetry.Event)
}

// EventPublisher sends one envelope to the broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *MissionEvent) error
}

type queuedEvent struct {
	missionID int64
	event     telemetry.Event
}

// Forwarder delivers runner events to the live channel and mirrors them to
// NATS. Publish never blocks on the broker.
type Forwarder struct {
	local     LocalBroadcaster
	publisher EventPublisher
	cfg       ForwarderConfig
	queue     chan queuedEvent
	log       *logging.EventLogger

	running   atomic.Bool
	forwarded atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewForwarder creates a Forwarder. Zero config fields take their defaults.
func NewForwarder(local LocalBroadcaster, publisher EventPublisher, cfg ForwarderConfig) (*Forwarder, error) {
	if local == nil {
		return nil, fmt.Errorf("local broadcaster required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher required")
	}

	def := DefaultForwarderConfig()
	if cfg.QueueSize < 1 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = def.PublishTimeout
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = def.DrainTimeout
	}

	return &Forwarder{
		local:     local,
		publisher: publisher,
		cfg:       cfg,
		queue:     make(chan queuedEvent, cfg.QueueSize),
		log:       logging.NewEventLogger(),
	}, nil
}

// Publish implements the mission runner's Broadcaster. The live channel
// always receives the event; the mirror copy is dropped when the queue is
// full.
func (f *Forwarder) Publish(missionID int64, event telemetry.Event) {
	f.local.Publish(missionID, event)

	select {
	case f.queue <- queuedEvent{missionID: missionID, event: event}:
		metrics.UpdateNATSForwardQueueDepth(len(f.queue))
	default:
		f.dropped.Add(1)
		metrics.RecordNATSForwardDropped()
		f.log.LogEventDropped(logging.ContextWithMissionID(context.Background(), missionID), event.Kind(), cap(f.queue))
	}
}

// Serve drains the queue until ctx is cancelled, then makes a bounded
// attempt to flush what is left. It is designed for suture supervision.
func (f *Forwarder) Serve(ctx context.Context) error {
	f.running.Store(true)
	defer f.running.Store(false)
	f.log.LogForwarderStarted(cap(f.queue))

	for {
		select {
		case <-ctx.Done():
			drained, abandoned := f.drain()
			f.log.LogForwarderStopped(drained, abandoned)
			return ctx.Err()
		case item := <-f.queue:
			metrics.UpdateNATSForwardQueueDepth(len(f.queue))
			f.forward(ctx, item)
		}
	}
}

// drain publishes queued events until the queue is empty or DrainTimeout
// passes. Events still queued after that are abandoned.
func (f *Forwarder) drain() (drained, abandoned int) {
	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.DrainTimeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			abandoned = len(f.queue)
			return drained, abandoned
		case item := <-f.queue:
			f.forward(ctx, item)
			drained++
		default:
			metrics.UpdateNATSForwardQueueDepth(0)
			return drained, 0
		}
	}
}

func (f *Forwarder) forward(parent context.Context, item queuedEvent) {
	envelope, err := NewMissionEvent(item.missionID, item.event)
	if err != nil {
		f.failed.Add(1)
		metrics.RecordNATSPublish("failure")
		logging.Error().Err(err).Int64("mission_id", item.missionID).Msg("failed to build mission event envelope")
		return
	}

	ctx, cancel := context.WithTimeout(logging.ContextWithMissionID(parent, item.missionID), f.cfg.PublishTimeout)
	defer cancel()

	subject := envelope.Subject(f.cfg.SubjectPrefix)

	if err := f.publisher.PublishEvent(ctx, envelope); err != nil {
		f.failed.Add(1)
		if isBreakerRejection(err) {
			metrics.RecordNATSPublish("rejected")
		} else {
			metrics.RecordNATSPublish("failure")
		}
		f.log.LogEventFailed(ctx, envelope.EventID, subject, err)
		return
	}
	f.forwarded.Add(1)
	metrics.RecordNATSPublish("success")
	f.log.LogEventPublished(ctx, envelope.EventID, subject)
}

// String implements fmt.Stringer for suture logs.
func (f *Forwarder) String() string {
	return "nats-forwarder"
}

// Healthy reports whether the drain loop is running.
func (f *Forwarder) Healthy() bool {
	return f.running.Load()
}

// ForwarderStats is a snapshot of mirror counters.
type ForwarderStats struct {
	Forwarded int64 `json:"forwarded"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	Queued    int   `json:"queued"`
}

// Stats returns the forwarder's counters since creation.
func (f *Forwarder) Stats() ForwarderStats {
	return ForwarderStats{
		Forwarded: f.forwarded.Load(),
		Failed:    f.failed.Load(),
		Dropped:   f.dropped.Load(),
		Queued:    len(f.queue),
	}
}
