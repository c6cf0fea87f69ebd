// Package retry provides a bounded retry policy for fallible external calls.
// Each settlement step owns its own Policy; the default budget is 3 attempts
// with no backoff, matching the chain-submission failure model.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy defines how a fallible operation is retried.
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	Backoff     time.Duration // constant delay between attempts; 0 = none

	// Retryable decides whether an error is worth another attempt.
	// Nil means every error is retryable.
	Retryable func(error) bool
}

// DefaultPolicy returns the settlement pipeline's standard policy:
// 3 attempts, no backoff, all errors retryable.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3}
}

// Do runs op up to p.MaxAttempts times, returning nil on the first success.
// After exhausting attempts it returns the last error wrapped with the attempt
// count; the caller receives a tagged failure rather than a raised exception
// mid-loop.  Context cancellation aborts between attempts.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		if p.Backoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Backoff):
			}
		}
	}
	return fmt.Errorf("retry: %d attempts exhausted: %w", attempts, lastErr)
}

// Do runs op under policy p and returns its value on the first success.
// On exhaustion the zero value is returned alongside the wrapped last error.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
