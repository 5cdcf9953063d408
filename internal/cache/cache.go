package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a small TTL map for read-mostly listings. Concurrent misses on the
// same key share one load.
type Cache[V any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry[V]
	gen uint64
	now func() time.Time

	group singleflight.Group
}

type entry[V any] struct {
	val V
	exp time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache[V]{
		ttl: ttl,
		m:   make(map[string]entry[V]),
		now: time.Now,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()

	if ok && c.now().Before(e.exp) {
		return e.val, true
	}
	if ok {
		c.evict(key)
	}

	var zero V
	return zero, false
}

func (c *Cache[V]) evict(key string) {
	now := c.now()

	c.mu.Lock()
	if cur, ok := c.m[key]; ok && !now.Before(cur.exp) {
		delete(c.m, key)
	}
	c.mu.Unlock()
}

func (c *Cache[V]) Set(key string, val V) {
	c.mu.Lock()
	c.m[key] = entry[V]{val: val, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// GetOrLoad returns the cached value or runs load once for all concurrent
// callers of key. Errors are not cached. A Delete or Clear that lands while
// load is running discards its result so invalidations are never undone.
func (c *Cache[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return v, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.m[key] = entry[V]{val: v, exp: c.now().Add(c.ttl)}
		}
		c.mu.Unlock()

		return v, nil
	})

	v, _ := res.(V)
	return v, err
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.gen++
	c.mu.Unlock()
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry[V])
	c.gen++
	c.mu.Unlock()
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
