package server

import (
	"strings"
	"sync"
	"time"
)

// RateLimiter allows one event per key every minInterval.
type RateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastSeen    map[string]time.Time
}

func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	return &RateLimiter{
		minInterval: minInterval,
		lastSeen:    make(map[string]time.Time),
	}
}

func (r *RateLimiter) Allow(key string) (bool, time.Duration) {
	return r.allowAt(key, time.Now())
}

func (r *RateLimiter) allowAt(key string, now time.Time) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	last, ok := r.lastSeen[key]
	if !ok {
		r.lastSeen[key] = now
		return true, 0
	}
	elapsed := now.Sub(last)
	if elapsed < r.minInterval {
		return false, r.minInterval - elapsed
	}
	r.lastSeen[key] = now
	return true, 0
}

// Forget drops the history of key and of every key scoped under it as
// "key/...", used when a session ends.
func (r *RateLimiter) Forget(key string) {
	prefix := key + "/"
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lastSeen, key)
	for k := range r.lastSeen {
		if strings.HasPrefix(k, prefix) {
			delete(r.lastSeen, k)
		}
	}
}
