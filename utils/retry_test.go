package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewLogger()}
	calls := 0

	err := r.Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d; want 3", calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond}
	boom := errors.New("boom")

	err := r.Do(context.Background(), "op", func() error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("error = %v; want wrapped %v", err, boom)
	}
}

func TestRetryStopsOnPermanent(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond}
	gone := errors.New("gone")
	calls := 0

	err := r.Do(context.Background(), "op", func() error {
		calls++
		return Permanent(gone)
	})

	if calls != 1 {
		t.Errorf("calls = %d; want 1", calls)
	}
	if !errors.Is(err, gone) {
		t.Errorf("error = %v; want wrapped %v", err, gone)
	}
}

func TestRetryHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Second}

	err := r.Do(ctx, "op", func() error {
		t.Error("fn should not run after cancel")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v; want context.Canceled", err)
	}
}
