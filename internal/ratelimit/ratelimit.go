// Package ratelimit provides a per-key token bucket limiter for inbound requests.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL       = 10 * time.Minute
	defaultSweepInterval = time.Minute
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter gives every key (usually a client IP) its own bucket.
// Buckets idle for longer than the idle TTL are evicted in the background.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter allowing rps requests per second with the given burst.
func New(rps float64, burst int) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: defaultIdleTTL,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	go krl.sweepLoop(defaultSweepInterval)

	return krl
}

// PerInterval creates a limiter allowing count requests per interval,
// e.g. PerInterval(20, time.Minute, 10).
func PerInterval(count int, interval time.Duration, burst int) *KeyedRateLimiter {
	return New(float64(count)/interval.Seconds(), burst)
}

// Allow reports whether a request for key may proceed. It never blocks.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	now := krl.now()

	krl.mu.Lock()
	e, ok := krl.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.entries[key] = e
	}
	e.lastSeen = now
	krl.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.entries)
}

// Stop shuts down the background sweeper.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.sweep()
		}
	}
}

// sweep drops buckets that have not been touched within the idle TTL.
// An idle bucket has refilled completely, so dropping it loses nothing.
func (krl *KeyedRateLimiter) sweep() {
	cutoff := krl.now().Add(-krl.idleTTL)

	krl.mu.Lock()
	defer krl.mu.Unlock()
	for key, e := range krl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(krl.entries, key)
		}
	}
}
