package server

import (
	"sync"
	"time"
)

// byteRateLimiter is a token bucket counting bytes.
type byteRateLimiter struct {
	mu     sync.Mutex
	tokens float64
	burst  float64
	rate   float64 // tokens per second
	last   time.Time
}

func newByteRateLimiter(rate, burst float64) *byteRateLimiter {
	return &byteRateLimiter{
		tokens: burst,
		burst:  burst,
		rate:   rate,
		last:   time.Now(),
	}
}

// Allow consumes n bytes from the bucket, reporting false when the
// traffic exceeds the sustained rate.
func (l *byteRateLimiter) Allow(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.last = now
	if float64(n) > l.tokens {
		return false
	}
	l.tokens -= float64(n)
	return true
}
