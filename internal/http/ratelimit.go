package http

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	bucketIdleEvict = 10 * time.Minute
	sweepInterval   = time.Minute
)

// RateLimiter throttles /ask per caller, one token bucket per key (bearer
// token or remote address). Idle buckets are swept inline on the request
// path rather than by a background goroutine.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit // refill rate in requests per second; 0 = disabled
	burst     int
	lastSweep time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter refilling at rpm requests per minute with
// the given burst. rpm <= 0 disables limiting entirely.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 5
	}
	var limit rate.Limit
	if rpm > 0 {
		limit = rate.Limit(float64(rpm) / 60.0)
	}
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		limit:     limit,
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// Enabled reports whether the limiter is active.
func (rl *RateLimiter) Enabled() bool { return rl.limit > 0 }

// Allow reports whether a request for key may proceed now. When throttled it
// also returns how long the caller should wait before retrying, so the
// handler can surface an accurate Retry-After.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	if rl.limit == 0 {
		return true, 0
	}

	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	rl.sweepLocked()
	rl.mu.Unlock()

	res := b.lim.Reserve()
	if !res.OK() {
		return false, time.Second
	}
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		slog.Warn("rate limit exceeded", "key", key, "retry_in", delay.Round(time.Millisecond))
		return false, delay
	}
	return true, 0
}

// sweepLocked evicts buckets idle past bucketIdleEvict, at most once per
// sweepInterval. Caller holds mu.
func (rl *RateLimiter) sweepLocked() {
	now := time.Now()
	if now.Sub(rl.lastSweep) < sweepInterval {
		return
	}
	rl.lastSweep = now
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > bucketIdleEvict {
			delete(rl.buckets, key)
		}
	}
}
