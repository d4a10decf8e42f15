// Package retry runs an operation under a bounded exponential-backoff policy.
// Only errors accepted by the RetryIf predicate are attempted again; without a
// predicate every error is terminal.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// policy is the resolved retry configuration. Options mutate it, normalize
// clamps it into a usable range.
type policy struct {
	maxAttempts  int // counts the first call too: 3 means at most two retries
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64 // backoff growth per failed attempt
	jitter       float64 // each delay is randomized by +/- this fraction
	retryIf      func(error) bool
}

func (p *policy) normalize() {
	if p.maxAttempts < 1 {
		p.maxAttempts = 1
	}
	if p.initialDelay <= 0 {
		p.initialDelay = 100 * time.Millisecond
	}
	if p.maxDelay < p.initialDelay {
		p.maxDelay = p.initialDelay
	}
	if p.multiplier < 1 {
		p.multiplier = 1
	}
	if p.jitter < 0 || p.jitter > 1 {
		p.jitter = 0
	}
}

// Option adjusts the retry policy.
type Option func(*policy)

func WithMaxAttempts(n int) Option            { return func(p *policy) { p.maxAttempts = n } }
func WithInitialDelay(d time.Duration) Option { return func(p *policy) { p.initialDelay = d } }
func WithMaxDelay(d time.Duration) Option     { return func(p *policy) { p.maxDelay = d } }
func WithMultiplier(m float64) Option         { return func(p *policy) { p.multiplier = m } }
func WithJitter(j float64) Option             { return func(p *policy) { p.jitter = j } }

// WithRetryIf installs the predicate deciding which errors are transient.
func WithRetryIf(fn func(error) bool) Option { return func(p *policy) { p.retryIf = fn } }

// Retrier runs operations under a fixed retry policy.
type Retrier struct {
	p policy
}

// New creates a Retrier. Defaults: 3 attempts, 100ms initial delay doubling
// up to 30s, 10% jitter, no retry predicate.
func New(opts ...Option) *Retrier {
	p := policy{
		maxAttempts:  3,
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		jitter:       0.1,
	}
	for _, opt := range opts {
		opt(&p)
	}
	p.normalize()
	return &Retrier{p: p}
}

// DatabaseRetrier returns a Retrier tuned for storage writes on the request
// path: short delays, few attempts. Extra options override the preset.
func DatabaseRetrier(opts ...Option) *Retrier {
	preset := []Option{
		WithMaxAttempts(3),
		WithInitialDelay(50 * time.Millisecond),
		WithMaxDelay(1 * time.Second),
		WithMultiplier(2.0),
		WithJitter(0.05),
	}
	return New(append(preset, opts...)...)
}

// Do runs the operation until it succeeds, the attempts run out, the
// predicate rejects the error, or the context is cancelled. The last
// attempt's error is returned unchanged.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == r.p.maxAttempts || r.p.retryIf == nil || !r.p.retryIf(lastErr) {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(r.backoffFor(attempt)):
		}
	}
}

// backoffFor computes the jittered delay after the given attempt.
func (r *Retrier) backoffFor(attempt int) time.Duration {
	delay := float64(r.p.initialDelay) * math.Pow(r.p.multiplier, float64(attempt-1))
	delay = math.Min(delay, float64(r.p.maxDelay))
	if r.p.jitter > 0 {
		delay += delay * r.p.jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(math.Max(delay, 0))
}
