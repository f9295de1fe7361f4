// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package websocket

import "sync"

// Subscription is one open live channel for a mission.
type Subscription struct {
	id        uint64
	missionID int64
	send      chan []byte
	hub       *Hub
	closeOnce sync.Once
}

// Events yields encoded events. The channel is closed when the
// subscription is removed, either by Close, by the hub dropping a slow
// subscriber, or by hub shutdown.
func (s *Subscription) Events() <-chan []byte {
	return s.send
}

// MissionID returns the mission this subscription follows.
func (s *Subscription) MissionID() int64 {
	return s.missionID
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() uint64 {
	return s.id
}

// Close unsubscribes. Calling it more than once is harmless.
func (s *Subscription) Close() {
	s.hub.Unsubscribe(s)
}

// closeSend closes the event queue exactly once. Callers either hold the
// mission set lock or own a subscription that was never registered, so no
// send can race with it.
func (s *Subscription) closeSend() {
	s.closeOnce.Do(func() { close(s.send) })
}
