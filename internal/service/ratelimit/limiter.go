package ratelimit

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a token bucket per key. Buckets start full.
type Limiter struct {
	mu       sync.Mutex
	clock    clock.Clock
	capacity float64
	refill   float64 // tokens per second
	m        map[string]*bucket
}

// New creates a limiter allowing bursts of capacity and perMinute sustained
// requests per key.
func New(capacity int, perMinute float64) *Limiter {
	return NewWithClock(clock.New(), capacity, perMinute)
}

func NewWithClock(clk clock.Clock, capacity int, perMinute float64) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{
		clock:    clk,
		capacity: float64(capacity),
		refill:   perMinute / 60,
		m:        make(map[string]*bucket),
	}
}

// Allow consumes one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
