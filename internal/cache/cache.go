// Package cache provides a generic in-process TTL cache with pattern-based
// invalidation. The engine holds three independently configured instances:
// result sets, autocomplete suggestions, and analytics snapshots.
package cache

import (
	"regexp"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type entry[V any] struct {
	value      V
	insertedAt time.Time
	ttl        time.Duration
}

func (e entry[V]) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.insertedAt) > e.ttl
}

// Cache is a mutex-guarded TTL key-value store. Expiry is lazy: entries are
// dropped on read once past their TTL; an optional janitor sweeps in the
// background. Entries are read-only after insertion.
type Cache[V any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[V]
	defaultTTL time.Duration
	now        func() time.Time

	hitTotal *prometheus.CounterVec // label "result": hit|miss

	janitorStop chan struct{}
	janitorOnce sync.Once
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock overrides the time source, for tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) { c.now = now }
}

// WithHitCounter wires a counter vec with a "result" label (hit/miss),
// passed explicitly so instances register their own metrics.
func WithHitCounter[V any](vec *prometheus.CounterVec) Option[V] {
	return func(c *Cache[V]) { c.hitTotal = vec }
}

// New creates a cache with the given default TTL. A zero defaultTTL means
// entries never expire unless Set is called with an explicit TTL.
func New[V any](defaultTTL time.Duration, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		entries:    make(map[string]entry[V]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key, or ok=false if absent or expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	if found && !e.expired(c.now()) {
		c.count("hit")
		return e.value, true
	}
	if found {
		// Lazy expiry.
		c.mu.Lock()
		if cur, still := c.entries[key]; still && cur.expired(c.now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}
	c.count("miss")
	var zero V
	return zero, false
}

// Set stores value under key with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, insertedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// Delete removes a single key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Invalidate deletes every entry whose key matches the pattern and returns
// the number removed. Used when underlying data changes so stale result
// sets are not served.
func (c *Cache[V]) Invalidate(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k := range c.entries {
		if re.MatchString(k) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Clear drops all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included until
// they are swept or read.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// StartJanitor sweeps expired entries every interval until Stop is called.
func (c *Cache[V]) StartJanitor(interval time.Duration) {
	c.janitorOnce.Do(func() {
		c.janitorStop = make(chan struct{})
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.sweep()
				case <-c.janitorStop:
					return
				}
			}
		}()
	})
}

// Stop terminates the janitor goroutine, if one was started.
func (c *Cache[V]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.janitorStop != nil {
		close(c.janitorStop)
		c.janitorStop = nil
	}
}

func (c *Cache[V]) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
}

func (c *Cache[V]) count(result string) {
	if c.hitTotal != nil {
		c.hitTotal.WithLabelValues(result).Inc()
	}
}
