// Package retry provides bounded exponential backoff for short, idempotent
// store operations.
package retry

import (
	"context"
	"time"
)

// Config bounds the retry behaviour.
type Config struct {
	// MaxAttempts includes the first try.
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
}

// DefaultConfig suits transient database failures: three attempts with
// 50ms/100ms waits.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  50 * time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      time.Second,
	}
}

// Do executes op with bounded exponential backoff. The last error is
// returned when every attempt fails; context cancellation aborts the wait.
func Do(ctx context.Context, cfg Config, op func(context.Context) error) error {
	var lastErr error

	delay := cfg.InitialDelay
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if lastErr = op(ctx); lastErr == nil {
			return nil
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return lastErr
}
