// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package auth

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/skysurvey/internal/logging"
)

// LoginThrottle limits credential attempts per client address with a token
// bucket. It sits behind chi's RealIP so RemoteAddr is the client.
type LoginThrottle struct {
	mu        sync.Mutex
	limiters  map[string]*throttleEntry
	rate      rate.Limit
	burst     int
	stopClean chan struct{}
	stopOnce  sync.Once
}

type throttleEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLoginThrottle allows perMinute attempts per client with the given
// burst. It starts a cleanup goroutine; call Stop to end it.
func NewLoginThrottle(perMinute, burst int) *LoginThrottle {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}
	t := &LoginThrottle{
		limiters:  make(map[string]*throttleEntry),
		rate:      rate.Limit(float64(perMinute) / 60.0),
		burst:     burst,
		stopClean: make(chan struct{}),
	}
	go t.startCleanup(5 * time.Minute)
	return t
}

// Allow reports whether key may attempt another login now.
func (t *LoginThrottle) Allow(key string) bool {
	t.mu.Lock()
	entry, ok := t.limiters[key]
	if !ok {
		entry = &throttleEntry{limiter: rate.NewLimiter(t.rate, t.burst)}
		t.limiters[key] = entry
	}
	entry.lastAccess = time.Now()
	limiter := entry.limiter
	t.mu.Unlock()

	return limiter.Allow()
}

// Middleware rejects over-limit clients with 429.
func (t *LoginThrottle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !t.Allow(ip) {
			logging.Warn().Str("client_ip", ip).Str("path", r.URL.Path).Msg("login throttled")
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Too many login attempts", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *LoginThrottle) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup(time.Now().Add(-time.Hour))
		case <-t.stopClean:
			return
		}
	}
}

// cleanup drops limiters idle since before threshold.
func (t *LoginThrottle) cleanup(threshold time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, entry := range t.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(t.limiters, key)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (t *LoginThrottle) Stop() {
	t.stopOnce.Do(func() { close(t.stopClean) })
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
