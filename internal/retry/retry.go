// Package retry provides an explicit result-returning retry loop, replacing
// exception-style retry control flow with a helper parameterized by attempt
// count and backoff function.
package retry

import (
	"context"
	"time"

	"github.com/yashdhanani30/medidown/generic"
)

// Backoff returns how long to wait before the given attempt (1-based, so
// attempt 1 is the delay before the first retry).
type Backoff func(attempt int) time.Duration

// None retries immediately.
func None() Backoff {
	return func(int) time.Duration { return 0 }
}

// Constant waits the same duration before every retry.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Exponential doubles the base delay for each retry.
func Exponential(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return base << (attempt - 1)
	}
}

// Do runs op up to attempts times, waiting per backoff between tries, and
// returns the first success or the last error. A failure is retried only
// when shouldRetry approves it; ctx cancellation stops the loop between
// attempts and is never retried.
func Do[T any](ctx context.Context, attempts int, backoff Backoff, shouldRetry func(error) bool, op func(context.Context) (T, error)) generic.Result[T] {
	if attempts < 1 {
		attempts = 1
	}
	var result generic.Result[T]
	for attempt := 1; attempt <= attempts; attempt++ {
		result = generic.NewResult(op(ctx))
		if result.IsOk() {
			return result
		}
		if ctx.Err() != nil || !shouldRetry(result.Error) || attempt == attempts {
			return result
		}
		delay := backoff(attempt)
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return generic.Err[T](ctx.Err())
		case <-timer.C:
		}
	}
	return result
}
