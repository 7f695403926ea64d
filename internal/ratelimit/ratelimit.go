package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket per caller-supplied key. Each key starts with a
// full bucket of `burst` tokens that refills continuously at burst/window.
// Kept in-process on purpose: withdrawal throttling is per instance and a
// full bucket after a restart only lets a few extra requests through.
type Limiter struct {
	mu           sync.Mutex
	burst        float64
	refillPerSec float64
	window       time.Duration
	buckets      map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

func New(burst int, window time.Duration) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Limiter{
		burst:        float64(burst),
		refillPerSec: float64(burst) / window.Seconds(),
		window:       window,
		buckets:      make(map[string]*bucket),
	}
}

// Allow takes one token from the key's bucket if one is available.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[key] = b
		l.sweep(now)
	}

	elapsed := now.Sub(b.last).Seconds()
	b.tokens += elapsed * l.refillPerSec
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets that have been idle long enough to refill completely,
// so the map does not grow with every key ever seen. Called under the lock on
// the cheap path where a new bucket is made.
func (l *Limiter) sweep(now time.Time) {
	if len(l.buckets) < 1024 {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.last) >= l.window {
			delete(l.buckets, key)
		}
	}
}
