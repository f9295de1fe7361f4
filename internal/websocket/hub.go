// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package websocket

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/metrics"
	"github.com/tomtom215/skysurvey/internal/telemetry"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

const (
	// DefaultSendBuffer is the per-subscriber queue length.
	DefaultSendBuffer = 256

	gaugeInterval = 15 * time.Second
)

// subscriptionIDCounter gives subscriptions a stable dispatch order.
var subscriptionIDCounter atomic.Uint64

// missionSubscribers is the subscriber set of a single mission. A set that
// has been emptied and unlinked from the hub is marked closed; Subscribe
// retries against a fresh set when it races with that removal.
type missionSubscribers struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// Hub fans mission events out to live channel subscribers.
type Hub struct {
	mu       sync.RWMutex
	missions map[int64]*missionSubscribers
	shutdown bool

	sendBuffer int
	total      atomic.Int64
}

// NewHub creates a Hub whose subscriptions buffer up to sendBuffer encoded
// events. Values below 1 use DefaultSendBuffer.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer < 1 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		missions:   make(map[int64]*missionSubscribers),
		sendBuffer: sendBuffer,
	}
}

// Subscribe registers a new subscriber for missionID. After the hub has shut
// down the returned subscription is already closed.
func (h *Hub) Subscribe(missionID int64) *Subscription {
	sub := &Subscription{
		id:        subscriptionIDCounter.Add(1),
		missionID: missionID,
		send:      make(chan []byte, h.sendBuffer),
		hub:       h,
	}

	for {
		set, ok := h.setFor(missionID)
		if !ok {
			sub.closeSend()
			return sub
		}

		set.mu.Lock()
		if set.closed {
			// Unlinked between lookup and lock; try again with a new set.
			set.mu.Unlock()
			continue
		}
		set.subs[sub] = struct{}{}
		n := h.total.Add(1)
		set.mu.Unlock()

		metrics.SetHubSubscribers(int(n))
		logging.Debug().
			Int64("mission_id", missionID).
			Uint64("subscription_id", sub.id).
			Int64("total_subscribers", n).
			Msg("live channel subscriber added")
		return sub
	}
}

// setFor returns the mission's subscriber set, creating it if needed. It
// holds the top-level lock only for the lookup and insert.
func (h *Hub) setFor(missionID int64) (*missionSubscribers, bool) {
	h.mu.RLock()
	set, ok := h.missions[missionID]
	shutdown := h.shutdown
	h.mu.RUnlock()
	if shutdown {
		return nil, false
	}
	if ok {
		return set, true
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.shutdown {
		return nil, false
	}
	if set, ok = h.missions[missionID]; !ok {
		set = &missionSubscribers{subs: make(map[*Subscription]struct{})}
		h.missions[missionID] = set
	}
	return set, true
}

func (h *Hub) lookup(missionID int64) *missionSubscribers {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.missions[missionID]
}

// Unsubscribe removes sub. It is idempotent and safe to call after the
// mission's runner stopped or the hub shut down.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	set := h.lookup(sub.missionID)
	if set == nil {
		sub.closeSend()
		return
	}

	set.mu.Lock()
	removed := h.removeLocked(set, sub)
	empty := len(set.subs) == 0
	set.mu.Unlock()

	if removed {
		logging.Debug().
			Int64("mission_id", sub.missionID).
			Uint64("subscription_id", sub.id).
			Msg("live channel subscriber removed")
	}
	if empty {
		h.pruneIfEmpty(sub.missionID, set)
	}
}

// removeLocked drops sub from set and closes its queue. The caller holds
// set.mu.
func (h *Hub) removeLocked(set *missionSubscribers, sub *Subscription) bool {
	if _, ok := set.subs[sub]; !ok {
		return false
	}
	delete(set.subs, sub)
	sub.closeSend()
	metrics.SetHubSubscribers(int(h.total.Add(-1)))
	return true
}

// pruneIfEmpty unlinks an empty set so idle missions do not accumulate.
// Lock order is hub then set.
func (h *Hub) pruneIfEmpty(missionID int64, set *missionSubscribers) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.missions[missionID] != set {
		return
	}
	set.mu.Lock()
	if len(set.subs) == 0 {
		set.closed = true
		delete(h.missions, missionID)
	}
	set.mu.Unlock()
}

// Publish encodes event once and delivers it to every current subscriber of
// missionID without blocking. Subscribers whose queue is full are removed.
// Publishing to a mission with no subscribers is a no-op.
func (h *Hub) Publish(missionID int64, event telemetry.Event) {
	set := h.lookup(missionID)
	if set == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logging.Error().Err(err).
			Int64("mission_id", missionID).
			Str("event_type", event.Kind()).
			Msg("failed to encode mission event")
		return
	}
	h.PublishRaw(missionID, payload)
}

// PublishRaw delivers an already encoded event.
func (h *Hub) PublishRaw(missionID int64, payload []byte) {
	set := h.lookup(missionID)
	if set == nil {
		return
	}

	set.mu.Lock()
	// Dispatch in subscription order so delivery is reproducible.
	subs := make([]*Subscription, 0, len(set.subs))
	for sub := range set.subs {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })

	var dropped []*Subscription
	for _, sub := range subs {
		select {
		case sub.send <- payload:
		default:
			dropped = append(dropped, sub)
		}
	}
	for _, sub := range dropped {
		h.removeLocked(set, sub)
		metrics.RecordSubscriberDropped()
		logging.Debug().
			Int64("mission_id", missionID).
			Uint64("subscription_id", sub.id).
			Msg("dropping slow live channel subscriber")
	}
	empty := len(set.subs) == 0
	set.mu.Unlock()

	if empty && len(dropped) > 0 {
		h.pruneIfEmpty(missionID, set)
	}
}

// SubscriberCount returns the number of subscribers for missionID.
func (h *Hub) SubscriberCount(missionID int64) int {
	set := h.lookup(missionID)
	if set == nil {
		return 0
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.subs)
}

// TotalSubscribers returns the number of subscribers across all missions.
func (h *Hub) TotalSubscribers() int {
	return int(h.total.Load())
}

// RunWithContext blocks until ctx is cancelled, refreshing the subscriber
// gauge, then closes every subscription. It is designed for suture
// supervision. A restarted hub accepts subscriptions again.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.mu.Lock()
	h.shutdown = false
	h.mu.Unlock()

	ticker := time.NewTicker(gaugeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			closed := h.closeAll()
			logging.Info().
				Str("component", "websocket-hub").
				Str("reason", string(getShutdownReason(ctx))).
				Int("clients_closed", closed).
				Msg("websocket hub stopped")
			return ctx.Err()
		case <-ticker.C:
			metrics.SetHubSubscribers(h.TotalSubscribers())
		}
	}
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAll closes every subscription and refuses new ones until the hub is
// run again.
func (h *Hub) closeAll() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shutdown = true

	closed := 0
	for id, set := range h.missions {
		set.mu.Lock()
		for sub := range set.subs {
			delete(set.subs, sub)
			sub.closeSend()
			closed++
		}
		set.closed = true
		set.mu.Unlock()
		delete(h.missions, id)
	}
	h.total.Store(0)
	metrics.SetHubSubscribers(0)
	return closed
}
