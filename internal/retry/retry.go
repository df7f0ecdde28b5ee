// Package retry is a minimal retry helper for transient failures, used by the
// journal worker so a hiccup in the backing store never loses an event
// outright.
package retry

import (
	"context"
	"time"
)

const maxDelay = 5 * time.Second

// DoWithRetry executes fn up to attempts times, doubling the delay between
// attempts up to a fixed cap. It stops early if the context is canceled and
// returns the last error when every attempt fails.
func DoWithRetry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err = fn(); err == nil {
			return nil
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > maxDelay {
			delay = maxDelay
		}
	}
	return err
}
