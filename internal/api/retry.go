package api

import (
	"context"
	"time"
)

const (
	// DefaultRetryAttempts bounds the retry helper; bulk scans used to be
	// "rerun the whole script" on flaky hosting, three attempts covers the
	// common blips without hammering a struggling server
	DefaultRetryAttempts = 3

	// DefaultRetryDelay is the first backoff interval; each subsequent
	// attempt doubles it
	DefaultRetryDelay = 2 * time.Second
)

// Retry runs fn up to attempts times, backing off exponentially between
// tries. Only transient failures (timeouts, connection errors, 5xx) are
// retried; authentication, not-found and validation errors return
// immediately. Never wrap a non-idempotent write in Retry unless the
// endpoint is safe to re-apply.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay << (attempt - 1)):
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
	}
	return err
}
