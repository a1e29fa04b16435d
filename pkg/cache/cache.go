package cache

import (
	"sync"
	"time"
)

// Cache is a thread-safe in-memory TTL cache for compiled artifacts.
// When MaxEntries is reached the entry closest to expiry is evicted.
type Cache[V any] struct {
	items           map[string]*cacheItem[V]
	mu              sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

type cacheItem[V any] struct {
	value      V
	expiration time.Time
}

// Options configures a Cache. Zero values pick the defaults.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	MaxEntries      int
}

const (
	DefaultTTL             = 10 * time.Minute
	DefaultCleanupInterval = time.Minute
	DefaultMaxEntries      = 1000
)

// New creates a cache and starts its background cleanup goroutine.
// Call Stop to release it.
func New[V any](opts Options) *Cache[V] {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}

	c := &Cache[V]{
		items:           make(map[string]*cacheItem[V]),
		ttl:             opts.TTL,
		maxEntries:      opts.MaxEntries,
		cleanupInterval: opts.CleanupInterval,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	go c.startCleanup()

	return c
}

// Get returns the cached value and true, or the zero value and false when
// the key is missing or expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || c.now().After(item.expiration) {
		var zero V
		return zero, false
	}
	return item.value, true
}

// Set stores value under key with the cache's default TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key for ttl
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxEntries {
		c.evictLocked()
	}

	c.items[key] = &cacheItem[V]{
		value:      value,
		expiration: c.now().Add(ttl),
	}
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*cacheItem[V])
}

// Size returns the number of stored entries, including expired ones not yet cleaned up
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stop shuts down the cleanup goroutine. It is safe to call more than once.
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCleanup)
	})
}

func (c *Cache[V]) startCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache[V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
		}
	}
}

// evictLocked drops expired entries, or the one expiring soonest when none are
func (c *Cache[V]) evictLocked() {
	now := c.now()
	var oldestKey string
	var oldest time.Time
	haveOldest := false
	evicted := false

	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
			evicted = true
			continue
		}
		if !haveOldest || item.expiration.Before(oldest) {
			oldestKey = key
			oldest = item.expiration
			haveOldest = true
		}
	}

	if !evicted && haveOldest {
		delete(c.items, oldestKey)
	}
}
