// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

/*
Package websocket implements the per-mission live channel.

The Hub keeps one subscriber set per mission id. Mission runners call
Publish with telemetry and detection events; the Hub encodes each event once
and hands the bytes to every current subscriber of that mission without
blocking. A subscriber that cannot keep up, or that has gone away, is
removed on the spot and the runner never notices.

# Architecture

	Runner ──Publish(id, event)──► Hub ──► missionSubscribers[id] ──► Subscription.send
	                                                                   │
	                                        Client.writePump ◄─────────┘
	                                              │
	                                        gorilla/websocket conn

Locking is two-level. The top-level map lock is held only to look up or
insert a mission's set. Each set has its own mutex that guards membership
and dispatch, so a slow fan-out for one mission never holds up another.

# Late joiners

There is no backlog. A subscription only sees events published after it was
registered.

# Client Protocol

Server to client messages are the raw event JSON:

	{"type":"telemetry","mission_id":7,"lat":48.2003,"lon":16.3701,"alt":10.4,"battery":87,"timestamp":"..."}
	{"type":"detection","lat":48.2003,"lon":16.3701,"label":"plastic","score":0.912,"timestamp":"..."}

Client to server messages are read only to notice disconnects. A
{"type":"ping"} message is answered with {"type":"pong"}.

# Supervision

RunWithContext blocks until its context is cancelled, refreshing the
subscriber gauge periodically, and closes every subscription on the way out.
It is run as a suture service by the supervisor package.
*/
package websocket
