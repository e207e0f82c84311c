package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PulseFeed/internal/domain/repository"
	applogger "PulseFeed/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// FetchFunc produces a fresh value for a resource key.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	value     any
	fetchedAt time.Time
}

// FreshCache is a keyed store of (value, fetchedAt) pairs with per-resource
// TTLs. Expired or missing keys trigger a fetch; concurrent callers for the
// same key are coalesced onto a single upstream call. Fetch failures are
// propagated to every coalesced waiter and never cached.
type FreshCache struct {
	mu      sync.RWMutex
	entries map[string]entry

	ttls    TTLTable
	group   singleflight.Group
	metrics repository.Metrics
	log     *applogger.Logger
	now     func() time.Time
}

// Option configures FreshCache.
type Option func(*FreshCache)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *FreshCache) {
		c.now = now
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m repository.Metrics) Option {
	return func(c *FreshCache) {
		c.metrics = m
	}
}

// New creates a FreshCache with the given TTL table.
func New(ttls TTLTable, log *applogger.Logger, opts ...Option) *FreshCache {
	c := &FreshCache{
		entries: make(map[string]entry),
		ttls:    ttls,
		metrics: repository.NopMetrics{},
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key when fresh, otherwise fetches.
// With force, the freshness check is skipped but an in-flight fetch is still
// joined rather than duplicated.
func (c *FreshCache) Get(ctx context.Context, key string, force bool, fetch FetchFunc) (any, error) {
	resource := ResourceClass(key)

	if !force {
		if v, ok := c.freshValue(key); ok {
			c.metrics.RecordCacheHit(resource)
			return v, nil
		}
	}
	c.metrics.RecordCacheMiss(resource)

	executed := false
	v, err, _ := c.group.Do(key, func() (any, error) {
		executed = true

		// A fetch that completed while this caller was waiting for the
		// flight slot may already have repopulated the entry.
		if !force {
			if v, ok := c.freshValue(key); ok {
				return v, nil
			}
		}

		start := c.now()
		v, err := fetch(ctx)
		c.metrics.RecordFetch(resource, c.now().Sub(start), err)
		if err != nil {
			c.log.Warn("fetch failed",
				applogger.String("resource", key),
				applogger.Error(err),
			)
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = entry{value: v, fetchedAt: c.now()}
		c.mu.Unlock()
		return v, nil
	})
	if !executed {
		c.metrics.RecordCoalescedWaiter(resource)
	}
	return v, err
}

// Invalidate clears the entry for a key. An in-flight fetch for the key is
// left alone and may still populate a fresh entry when it completes.
func (c *FreshCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll clears every entry.
func (c *FreshCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// ResourceStatus reports freshness of one resource key.
type ResourceStatus struct {
	Exists    bool  `json:"exists"`
	Fresh     bool  `json:"fresh"`
	AgeMs     int64 `json:"age_ms"`
	TTLMs     int64 `json:"ttl_ms"`
	FetchedAt int64 `json:"fetched_at,omitempty"`
}

// Status reports freshness per key, covering the singleton resource classes
// plus every key an entry exists for. Read-only, never blocks on a fetch.
func (c *FreshCache) Status() map[string]ResourceStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	out := make(map[string]ResourceStatus, len(c.entries)+4)
	for _, key := range []string{ResourceTokens, ResourceMarkets, ResourcePositions, ResourcePositionInfo} {
		out[key] = c.statusLocked(key, now)
	}
	for key := range c.entries {
		out[key] = c.statusLocked(key, now)
	}
	return out
}

// Ages reports the age in milliseconds of every existing entry.
func (c *FreshCache) Ages() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	out := make(map[string]int64, len(c.entries))
	for key, e := range c.entries {
		out[key] = now.Sub(e.fetchedAt).Milliseconds()
	}
	return out
}

func (c *FreshCache) statusLocked(key string, now time.Time) ResourceStatus {
	ttl := c.ttls.TTLFor(key)
	e, ok := c.entries[key]
	if !ok {
		return ResourceStatus{TTLMs: ttl.Milliseconds()}
	}
	age := now.Sub(e.fetchedAt)
	return ResourceStatus{
		Exists:    true,
		Fresh:     age < ttl,
		AgeMs:     age.Milliseconds(),
		TTLMs:     ttl.Milliseconds(),
		FetchedAt: e.fetchedAt.UnixMilli(),
	}
}

func (c *FreshCache) freshValue(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttls.TTLFor(key) {
		return nil, false
	}
	return e.value, true
}

// GetTyped fetches through the cache and asserts the cached value's type.
func GetTyped[T any](ctx context.Context, c *FreshCache, key string, force bool, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Get(ctx, key, force, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: unexpected value type for %s", key)
	}
	return t, nil
}
