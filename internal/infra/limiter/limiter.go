package limiter

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// Limiter bounds calls to the model API across every carousel session:
// a token bucket for request rate plus a semaphore for calls in flight.
type Limiter struct {
	semaphore   chan struct{}
	rateLimiter *rate.Limiter
}

func New(maxConcurrent int, ratePerSecond float64) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	limit := rate.Inf
	burst := 0
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
		burst = int(math.Max(1, math.Ceil(ratePerSecond)))
	}
	return &Limiter{
		semaphore:   make(chan struct{}, maxConcurrent),
		rateLimiter: rate.NewLimiter(limit, burst),
	}
}

func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	select {
	case l.semaphore <- struct{}{}:
		return func() { <-l.semaphore }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
