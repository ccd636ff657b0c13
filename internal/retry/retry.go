package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted wraps the last error once every attempt failed with a retryable error.
var ErrExhausted = errors.New("retry attempts exhausted")

// BackoffPolicy returns how long to wait after the given failed attempt (1-based).
type BackoffPolicy func(attempt int) time.Duration

// Linear waits attempt*base.
func Linear(base time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// Exponential waits base, 2*base, 4*base and so on.
func Exponential(base time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return base << (attempt - 1)
	}
}

// NoWait retries immediately.
func NoWait(int) time.Duration { return 0 }

type RetryConfig struct {
	MaxAttempts int
	Backoff     BackoffPolicy
	// Retryable decides whether an error is worth another attempt.
	// nil retries every error.
	Retryable func(error) bool
	// OnRetry is called before waiting, mostly for logging.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// WithRetry calls fn until it succeeds, fails with a non-retryable error or
// runs out of attempts. Non-retryable errors are returned unchanged.
func WithRetry(ctx context.Context, config RetryConfig, fn func(attempt int) error) error {
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := config.Backoff
	if backoff == nil {
		backoff = NoWait
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if config.Retryable != nil && !config.Retryable(err) {
			return err
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, maxAttempts, err)
		}

		delay := backoff(attempt)
		if config.OnRetry != nil {
			config.OnRetry(attempt, delay, err)
		}
		if delay <= 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
