package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// retryConfig holds download retry parameters for exponential backoff.
//
// Invalid values are normalized:
//   - maxRetries < 0 becomes 0 (single attempt)
//   - baseDelay <= 0 becomes 1ms
//   - maxDelay <= 0 becomes baseDelay
type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

var defaultRetry = retryConfig{maxRetries: 3, baseDelay: time.Second, maxDelay: 8 * time.Second}

func (c *retryConfig) normalize() {
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.baseDelay <= 0 {
		c.baseDelay = time.Millisecond
	}
	if c.maxDelay <= 0 {
		c.maxDelay = c.baseDelay
	}
}

// transientError marks a download failure that another attempt may fix:
// a dropped connection, a 5xx or a 429.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

func transient(err error) error { return &transientError{err: err} }

func isTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// retryWithBackoff runs fn until it succeeds, shouldRetry rejects its error,
// the retries run out or ctx is done.
func retryWithBackoff(ctx context.Context, cfg retryConfig, fn func() error, shouldRetry func(error) bool) error {
	cfg.normalize()

	var lastErr error
	delay := cfg.baseDelay

	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay = min(delay*2, cfg.maxDelay)
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if !shouldRetry(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", cfg.maxRetries, lastErr)
}
