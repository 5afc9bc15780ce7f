// Package cache memoises expensive lookups for a bounded time: an expirable
// in-memory LRU in front of an optional SQLite tier that survives restarts.
// Concurrent misses on one key share a single fetch.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Cache is a typed read-through cache. Values stored in the durable tier
// must round-trip through encoding/json.
type Cache[V any] struct {
	lru    *expirable.LRU[string, V]
	group  singleflight.Group
	store  *Store
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	store  *Store
	logger *slog.Logger
}

// WithStore adds a durable tier consulted on memory misses.
func WithStore(s *Store) Option { return func(o *options) { o.store = s } }

// WithLogger sets the logger for durable-tier failures.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// New returns a cache holding at most size entries for ttl each.
func New[V any](size int, ttl time.Duration, opts ...Option) *Cache[V] {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if size <= 0 {
		size = 256
	}
	return &Cache[V]{
		lru:    expirable.NewLRU[string, V](size, nil, ttl),
		store:  o.store,
		ttl:    ttl,
		logger: o.logger,
	}
}

// Get returns the live value for key from memory, then from the durable tier.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	if v, ok := c.lru.Get(key); ok {
		return v, true
	}
	var zero V
	if c.store == nil {
		return zero, false
	}
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache: durable get", "key", key, "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("cache: decode", "key", key, "error", err)
		return zero, false
	}
	c.lru.Add(key, v)
	return v, true
}

// Add stores v under key in both tiers.
func (c *Cache[V]) Add(ctx context.Context, key string, v V) {
	c.lru.Add(key, v)
	if c.store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache: encode", "key", key, "error", err)
		return
	}
	if err := c.store.Put(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache: durable put", "key", key, "error", err)
	}
}

// Remove evicts key from both tiers.
func (c *Cache[V]) Remove(ctx context.Context, key string) {
	c.lru.Remove(key)
	if c.store != nil {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn("cache: durable delete", "key", key, "error", err)
		}
	}
}

// Len returns the number of live in-memory entries.
func (c *Cache[V]) Len() int { return c.lru.Len() }

// Do returns the cached value for key, or calls fetch once for all
// concurrent callers and caches a successful result. hit reports whether
// the value came from the cache. Errors are never cached.
func (c *Cache[V]) Do(ctx context.Context, key string, fetch func(context.Context) (V, error)) (v V, hit bool, err error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, true, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Detached so one caller's cancellation does not fail the others.
		fctx := context.WithoutCancel(ctx)
		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.Add(fctx, key, v)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, false, r.Err
		}
		v, ok := r.Val.(V)
		if !ok {
			return zero, false, fmt.Errorf("cache: unexpected value type %T", r.Val)
		}
		return v, false, nil
	}
}
