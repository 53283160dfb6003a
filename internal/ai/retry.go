package ai

import (
	"context"
	"time"
)

// Backoff returns the delay to wait after failed attempt n (1-based):
// 2^n seconds. There is no delay before the first attempt.
func Backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// SleepFunc waits for d or until ctx is done. Tests substitute a recording
// implementation so retry behavior can be verified without real timers.
type SleepFunc func(ctx context.Context, d time.Duration) error

func waitBackoff(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retry runs fn up to attempts times total, sleeping Backoff(n) between
// attempts. Attempts are strictly sequential; the loop stops at the first
// success. When every attempt fails the last error is returned. A context
// cancelled mid-backoff also ends the loop with the last error.
func Retry(ctx context.Context, attempts int, sleep SleepFunc, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	if sleep == nil {
		sleep = waitBackoff
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := fn(); err != nil {
			last = err
		} else {
			return nil
		}
		if attempt < attempts {
			if err := sleep(ctx, Backoff(attempt)); err != nil {
				return last
			}
		}
	}
	return last
}
