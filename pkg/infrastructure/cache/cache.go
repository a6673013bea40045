// Package cache provides TTL caches with serve-stale-on-error semantics for
// values loaded from slow, rate-limited upstream sources. Refreshes swap the
// stored value by reference as a whole, so concurrent readers never observe
// a partially updated entry.
package cache

import (
	"context"
	"sync"
	"time"
)

// Loader produces a fresh value for a cache entry
type Loader[T any] func(ctx context.Context) (T, error)

// Value is a single cached value with a freshness timestamp.
//
// GetOrRefresh returns the cached value without invoking the loader while it
// is fresh. On expiry it invokes the loader; on loader failure it serves the
// previous value (if any) alongside the loader error, and only propagates a
// bare failure when no previous value exists. Invalidate expires the
// timestamp but keeps the stored value, so stale-on-error still has material
// to fall back to.
type Value[T any] struct {
	ttl time.Duration

	mu        sync.RWMutex
	value     T
	ok        bool
	fetchedAt time.Time

	// now is swappable for tests
	now func() time.Time
}

// NewValue creates a cache holding one value with the given TTL
func NewValue[T any](ttl time.Duration) *Value[T] {
	return &Value[T]{ttl: ttl, now: time.Now}
}

// GetOrRefresh returns the cached value, refreshing it through loader when
// the TTL has lapsed. A non-nil error with a usable value means the value is
// stale: the last refresh failed and the prior value was served instead.
func (c *Value[T]) GetOrRefresh(ctx context.Context, loader Loader[T]) (T, error) {
	c.mu.RLock()
	if c.ok && c.now().Sub(c.fetchedAt) < c.ttl {
		v := c.value
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	fresh, err := loader(ctx)
	if err != nil {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.ok {
			return c.value, err
		}
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.value = fresh
	c.ok = true
	c.fetchedAt = c.now()
	c.mu.Unlock()
	return fresh, nil
}

// Peek returns the stored value without freshness checks or loading
func (c *Value[T]) Peek() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.ok
}

// Invalidate expires the entry without clearing the stored value
func (c *Value[T]) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// keyedEntry pairs a stored value with its fetch time
type keyedEntry[T any] struct {
	value     T
	fetchedAt time.Time
}

// Keyed is a per-key TTL cache with the same freshness, stale-on-error, and
// invalidation behavior as Value
type Keyed[K comparable, T any] struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[K]keyedEntry[T]

	now func() time.Time
}

// NewKeyed creates an empty keyed cache with the given TTL
func NewKeyed[K comparable, T any](ttl time.Duration) *Keyed[K, T] {
	return &Keyed[K, T]{
		ttl:     ttl,
		entries: make(map[K]keyedEntry[T]),
		now:     time.Now,
	}
}

// GetOrRefresh returns the cached value for key, refreshing through loader
// when missing or expired. Stale-on-error semantics match Value.GetOrRefresh.
func (c *Keyed[K, T]) GetOrRefresh(ctx context.Context, key K, loader Loader[T]) (T, error) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()
	if exists && c.now().Sub(e.fetchedAt) < c.ttl {
		return e.value, nil
	}

	fresh, err := loader(ctx)
	if err != nil {
		if exists {
			return e.value, err
		}
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = keyedEntry[T]{value: fresh, fetchedAt: c.now()}
	c.mu.Unlock()
	return fresh, nil
}

// InvalidateAll expires every entry without clearing stored values
func (c *Keyed[K, T]) InvalidateAll() {
	c.mu.Lock()
	for k, e := range c.entries {
		e.fetchedAt = time.Time{}
		c.entries[k] = e
	}
	c.mu.Unlock()
}

// Len returns the number of stored entries
func (c *Keyed[K, T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
