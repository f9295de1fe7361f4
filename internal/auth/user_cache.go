// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package auth

import (
	"context"
	"time"

	"github.com/tomtom215/skysurvey/internal/cache"
)

const (
	defaultUserCacheSize = 1024
	defaultUserCacheTTL  = 30 * time.Second
)

// CachedUserLookup remembers users that were recently confirmed to exist.
// Negative answers and errors are never cached, so a new account is usable
// immediately.
type CachedUserLookup struct {
	next  UserLookup
	known *cache.LRU[int64, struct{}]
}

// NewCachedUserLookup wraps next. Non-positive size or ttl use defaults.
func NewCachedUserLookup(next UserLookup, size int, ttl time.Duration) *CachedUserLookup {
	if size < 1 {
		size = defaultUserCacheSize
	}
	if ttl <= 0 {
		ttl = defaultUserCacheTTL
	}
	return &CachedUserLookup{
		next:  next,
		known: cache.NewLRU[int64, struct{}](size, ttl),
	}
}

// UserExists implements UserLookup.
func (c *CachedUserLookup) UserExists(ctx context.Context, id int64) (bool, error) {
	if _, ok := c.known.Get(id); ok {
		return true, nil
	}
	ok, err := c.next.UserExists(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	c.known.Add(id, struct{}{})
	return true, nil
}

// Forget drops id so the next lookup goes to the backing store.
func (c *CachedUserLookup) Forget(id int64) {
	c.known.Remove(id)
}

// Stats reports cache hits and misses.
func (c *CachedUserLookup) Stats() cache.Stats {
	return c.known.Stats()
}
