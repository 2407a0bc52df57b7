package notification

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket limiter that keeps alert bursts from
// overwhelming the external notification services.
type RateLimiter struct {
	rate       int           // tokens per interval
	interval   time.Duration // time window for rate
	tokens     float64       // current available tokens
	maxTokens  int           // maximum tokens (burst capacity)
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a token bucket allowing requestsPerMinute sends on
// average with bursts up to burstSize.
func NewRateLimiter(requestsPerMinute, burstSize int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if burstSize <= 0 {
		burstSize = 10
	}
	return &RateLimiter{
		rate:       requestsPerMinute,
		interval:   time.Minute,
		tokens:     float64(burstSize),
		maxTokens:  burstSize,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	rl.tokens += elapsed.Seconds() / rl.interval.Seconds() * float64(rl.rate)
	if rl.tokens > float64(rl.maxTokens) {
		rl.tokens = float64(rl.maxTokens)
	}
	rl.lastRefill = now

	if rl.tokens < 1 {
		return false
	}
	rl.tokens--
	return true
}
