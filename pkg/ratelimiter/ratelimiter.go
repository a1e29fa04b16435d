package ratelimiter

import (
	"sync"
	"time"
)

// Policy is a sliding-window limit: at most Limit requests per Window
type Policy struct {
	Limit  int
	Window time.Duration
}

type bucketKey struct {
	namespace string
	key       string
}

// RateLimiter counts requests per namespace and key in memory. Requests
// in a namespace without a policy are denied.
//
//	rl := ratelimiter.New(time.Minute)
//	rl.SetPolicy("render", ratelimiter.Policy{Limit: 120, Window: time.Minute})
//	if ok, retry := rl.Allow("render", clientIP); !ok { ... }
type RateLimiter struct {
	mu       sync.Mutex
	hits     map[bucketKey][]time.Time
	policies map[string]Policy
	now      func() time.Time

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// New creates a limiter and starts a goroutine dropping idle buckets every
// cleanupInterval. Call Stop to release it.
func New(cleanupInterval time.Duration) *RateLimiter {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	rl := &RateLimiter{
		hits:            make(map[bucketKey][]time.Time),
		policies:        make(map[string]Policy),
		now:             time.Now,
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) SetPolicy(namespace string, policy Policy) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.policies[namespace] = policy
}

// Allow records a request and reports whether it fits the namespace
// policy. A denied request is not recorded; retryAfter tells when the
// oldest counted request leaves the window.
func (rl *RateLimiter) Allow(namespace, key string) (allowed bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, ok := rl.policies[namespace]
	if !ok || policy.Limit <= 0 {
		return false, 0
	}

	now := rl.now()
	bk := bucketKey{namespace: namespace, key: key}
	recent := prune(rl.hits[bk], now.Add(-policy.Window))

	if len(recent) >= policy.Limit {
		rl.hits[bk] = recent
		return false, recent[0].Add(policy.Window).Sub(now)
	}

	rl.hits[bk] = append(recent, now)
	return true, 0
}

// Reset forgets every request counted for key in namespace
func (rl *RateLimiter) Reset(namespace, key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.hits, bucketKey{namespace: namespace, key: key})
}

// Buckets returns the number of tracked namespace and key pairs
func (rl *RateLimiter) Buckets() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.hits)
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for bk, hits := range rl.hits {
		policy, ok := rl.policies[bk.namespace]
		if !ok {
			delete(rl.hits, bk)
			continue
		}
		if recent := prune(hits, now.Add(-policy.Window)); len(recent) == 0 {
			delete(rl.hits, bk)
		} else {
			rl.hits[bk] = recent
		}
	}
}

// prune drops the timestamps at or before cutoff. hits is in ascending order.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
