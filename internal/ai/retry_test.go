package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	cases := map[int]time.Duration{
		1: 2 * time.Second,
		2: 4 * time.Second,
		3: 8 * time.Second,
	}
	for attempt, want := range cases {
		if got := Backoff(attempt); got != want {
			t.Fatalf("Backoff(%d) = %s, want %s", attempt, got, want)
		}
	}
}

func TestRetry_StopsAtFirstSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, noSleep, func() error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	last := errors.New("final")
	err := Retry(context.Background(), 3, noSleep, func() error {
		calls++
		if calls == 3 {
			return last
		}
		return errors.New("earlier")
	})
	if calls != 3 {
		t.Fatalf("expected exactly 3 calls, got %d", calls)
	}
	if !errors.Is(err, last) {
		t.Fatalf("expected last error, got %v", err)
	}
}

func TestRetry_CancelledContextStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	boom := errors.New("boom")
	err := Retry(ctx, 3, func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}, func() error {
		calls++
		return boom
	})
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected attempt error preserved, got %v", err)
	}
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }
