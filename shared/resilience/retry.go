package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type RetryConfig struct {
	// MaxAttempts counts the first call, so 3 means up to two retries
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Retry calls fn until it succeeds, returns a Permanent error or the attempt
// budget is spent. The last error is returned unwrapped.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}

	attempts := cfg.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	return backoff.Retry(ctx, func() (T, error) {
		return fn(ctx)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(attempts))
}

// Permanent stops Retry after the current attempt
func Permanent(err error) error {
	return backoff.Permanent(err)
}
