// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/grouphub/internal/metrics"
)

// Entry is a cached query result with its expiry.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Cache is a thread-safe query cache with TTL expiry and key invalidation.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	stats   Stats

	stopOnce sync.Once
	stop     chan struct{}
}

// Stats tracks cache performance.
type Stats struct {
	mu            sync.RWMutex
	Hits          int64
	Misses        int64
	Invalidations int64
	TotalKeys     int64
	LastCleanup   time.Time
}

// New creates a cache whose entries live for ttl. A background goroutine
// removes expired entries until Close is called.
//
//	c := cache.New(5 * time.Minute)
//	defer c.Close()
func New(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		stats:   Stats{LastCleanup: time.Now()},
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop(cleanupInterval(ttl))
	return c
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > 5*time.Minute {
		return 5 * time.Minute
	}
	return ttl
}

// Get returns the entry for key if present and not expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = Entry{Data: value, ExpiresAt: time.Now().Add(ttl)}
	n := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.TotalKeys = n
	c.stats.mu.Unlock()
}

// Invalidate marks key stale so the next read refetches.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	n := int64(len(c.entries))
	c.mu.Unlock()

	c.recordInvalidation(key, n)
}

// InvalidatePrefix removes every key equal to prefix or starting with
// prefix followed by the key separator.
func (c *Cache) InvalidatePrefix(prefix string) int {
	scoped := prefix + keySeparator
	c.mu.Lock()
	removed := 0
	for key := range c.entries {
		if key == prefix || strings.HasPrefix(key, scoped) {
			delete(c.entries, key)
			removed++
		}
	}
	n := int64(len(c.entries))
	c.mu.Unlock()

	if removed > 0 {
		c.recordInvalidation(prefix, n)
	}
	return removed
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.TotalKeys = 0
	c.stats.mu.Unlock()
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// GetStats returns a copy of the current statistics.
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:          c.stats.Hits,
		Misses:        c.stats.Misses,
		Invalidations: c.stats.Invalidations,
		TotalKeys:     c.stats.TotalKeys,
		LastCleanup:   c.stats.LastCleanup,
	}
}

// HitRate returns the hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (c *Cache) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *Cache) cleanup() {
	now := time.Now()
	c.mu.Lock()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
	n := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.TotalKeys = n
	c.stats.LastCleanup = now
	c.stats.mu.Unlock()
}

func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	metrics.CacheHits.Inc()
}

func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
	metrics.CacheMisses.Inc()
}

func (c *Cache) recordInvalidation(key string, total int64) {
	c.stats.mu.Lock()
	c.stats.Invalidations++
	c.stats.TotalKeys = total
	c.stats.mu.Unlock()
	metrics.CacheInvalidations.WithLabelValues(labelFor(key)).Inc()
}

// labelFor keeps metric cardinality bounded to the key tag.
func labelFor(key string) string {
	if i := strings.Index(key, keySeparator); i >= 0 {
		return key[:i]
	}
	return key
}

const keySeparator = ":"

// Key joins a query tag and its parameters, e.g. Key("domain-config", groupID).
func Key(tag string, params ...string) string {
	if len(params) == 0 {
		return tag
	}
	return tag + keySeparator + strings.Join(params, keySeparator)
}

// Fetch returns the cached value for key or calls fetch and caches its result.
// Errors are not cached.
func Fetch[T any](ctx context.Context, c Querier, key string, fetch func(context.Context) (T, error)) (T, bool, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, true, nil
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	c.Set(key, v)
	return v, false, nil
}
