// Package retry provides a bounded-attempt retry wrapper and a circuit
// breaker for fallible network calls.
package retry

import (
	"context"
	"time"

	"marketpulse/internal/model"
)

// Policy retries an operation a fixed number of times with a fixed
// delay between attempts. No jitter or exponential growth: the failure
// path adds at most (attempts-1) × delay of latency.
type Policy struct {
	Attempts int
	Delay    time.Duration

	// OnRetry is called before each re-attempt (optional, for metrics).
	OnRetry func(attempt int, err error)
}

// NewPolicy creates a retry policy. attempts < 1 is treated as 1.
func NewPolicy(attempts int, delay time.Duration) *Policy {
	if attempts < 1 {
		attempts = 1
	}
	return &Policy{Attempts: attempts, Delay: delay}
}

// Do invokes op, retrying transient failures until the attempt budget
// is exhausted. The last error is returned unchanged. Validation
// errors are never retried and fail immediately. Context cancellation
// aborts the wait between attempts.
func (p *Policy) Do(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if model.IsValidation(lastErr) {
			return lastErr
		}
		if attempt >= p.Attempts {
			return lastErr
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}
}

// Value runs op through the policy and returns its result.
func Value[T any](ctx context.Context, p *Policy, op func() (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func() error {
		v, err := op()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
