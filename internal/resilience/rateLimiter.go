package resilience

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per upstream so embedding and
// generation calls are throttled independently.
type RateLimiter struct {
	upstreams map[string]*rate.Limiter
	mu        sync.Mutex
	rateLimit rate.Limit
	burstRate int
}

// NewRateLimiter with a non-positive rate returns a limiter that never blocks.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{upstreams: make(map[string]*rate.Limiter), rateLimit: limit, burstRate: burst}
}

func (r *RateLimiter) GetLimiter(upstream string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	limiter, exists := r.upstreams[upstream]
	if !exists {
		limiter = rate.NewLimiter(r.rateLimit, r.burstRate)
		r.upstreams[upstream] = limiter
	}
	return limiter
}

// Wait blocks until the upstream has a free token or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, upstream string) error {
	if r == nil {
		return nil
	}
	return r.GetLimiter(upstream).Wait(ctx)
}
