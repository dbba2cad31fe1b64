package resilience

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned by Wait when the context ends first.
var ErrRateLimited = errors.New("rate limited")

// Limiter is a token bucket rate limiter over x/time/rate.
type Limiter struct {
	rl *rate.Limiter
}

// NewLimiter creates a limiter allowing rps events per second with the
// given burst capacity.
func NewLimiter(rps float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow reports whether a request may proceed now (non-blocking).
func (l *Limiter) Allow() bool {
	return l.rl.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.rl.Wait(ctx); err != nil {
		return errors.Join(ErrRateLimited, err)
	}
	return nil
}
