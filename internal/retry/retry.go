// Package retry provides a small bounded-retry helper with exponential
// backoff, used for the LLM sub-steps whose failures are transient by nature.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Do calls fn up to attempts times, sleeping base, 2*base, 4*base... between
// tries. It stops early when the context is canceled and returns the last
// error together with the context error.
func Do(ctx context.Context, attempts int, base time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	backoff := base

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (last attempt: %w)", err, lastErr)
			}
			return err //nolint:wrapcheck // context error is the caller's signal
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last attempt: %w)", ctx.Err(), lastErr)
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return lastErr
}
