// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

/*
Package eventprocessor mirrors live mission events to NATS JetStream.

The live channel stays in process: the websocket Hub is always the first
recipient of every runner event. When the mirror is enabled a Forwarder sits
in front of the Hub, hands each event to it, and then queues a copy for
JetStream. A supervised goroutine drains that queue through a watermill-nats
Publisher guarded by a gobreaker circuit breaker, so a slow or unreachable
broker never stalls a mission tick.

# Subjects

Events land on the MISSION_EVENTS stream under

	<prefix>.<mission_id>.telemetry
	<prefix>.<mission_id>.detection

where prefix defaults to "missions". Each message body is a MissionEvent
envelope whose payload is the exact JSON frame sent on the live channel.
The envelope's event_id doubles as the Nats-Msg-Id header, so JetStream
discards duplicates inside the stream's deduplication window.

# Build Tags

The NATS client, watermill and the embedded server are only linked in when
building with -tags nats. Without the tag NewPublisher, NewEmbeddedServer and
EnsureMissionStream return ErrNATSNotEnabled and the composition root wires
the Hub straight into the mission manager.

# Backpressure

The forward queue is bounded (nats.forward_queue_size). When it is full the
event is dropped from the mirror only, counted in nats_forward_dropped_total,
and still delivered to live subscribers.
*/
package eventprocessor
