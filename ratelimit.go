package gdata

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds the sustained request rate and burst size applied to
// a service's outgoing requests.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// RateLimiter throttles requests with a token bucket and honours server
// backoff hints (Retry-After on 429/503 responses). The per-service façades
// install one with conservative defaults well below Google's published
// limits.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5.0
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 10
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request may be sent, honouring both the token bucket
// and any backoff recorded from a throttled response.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if until := time.Until(retryAt); until > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(until):
		}
	}
	return r.limiter.Wait(ctx)
}

// RecordRetryAfter records a server backoff hint in seconds. Zero or
// negative applies a default 60 second backoff.
func (r *RateLimiter) RecordRetryAfter(seconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seconds <= 0 {
		seconds = 60
	}
	r.retryAt = time.Now().Add(time.Duration(seconds) * time.Second)
}

// Allow reports whether a request may be sent right now without blocking.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()
	if time.Now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}
