package cache

import (
	"context"
	"sync"
	"time"
)

// Store caches serialized responses. Misses and backend failures look the
// same to callers; the cache is never the source of truth.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
}

const defaultMaxEntries = 1024

// Cache is an in-process TTL map with a cap on the number of keys. Search
// keys come from user input, so the cap keeps memory bounded.
type Cache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	m          map[string]entry
	now        func() time.Time
}

type entry struct {
	val []byte
	exp time.Time
}

type Option func(*Cache)

// WithMaxEntries sets the key cap; n <= 0 keeps the default.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	c := &Cache{
		ttl:        ttl,
		maxEntries: defaultMaxEntries,
		m:          make(map[string]entry),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		if cur, ok := c.m[key]; ok && now.After(cur.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

// Set stores val for the TTL. When the cap is reached, expired entries are
// swept first; if none were expired the entry closest to expiry is dropped.
func (c *Cache) Set(_ context.Context, key string, val []byte) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.m[key]; !exists && len(c.m) >= c.maxEntries {
		c.evictLocked(now)
	}

	c.m[key] = entry{val: val, exp: now.Add(c.ttl)}
}

func (c *Cache) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldestExp time.Time
	)

	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
			continue
		}
		if oldestKey == "" || e.exp.Before(oldestExp) {
			oldestKey, oldestExp = k, e.exp
		}
	}

	if len(c.m) >= c.maxEntries && oldestKey != "" {
		delete(c.m, oldestKey)
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte)        {}
