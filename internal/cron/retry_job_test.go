package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryJob_PassesMaxAttempts(t *testing.T) {
	var seen int
	repo := &fakeNotificationsRepo{
		resetFn: func(ctx context.Context, maxAttempts int) (int64, error) {
			seen = maxAttempts
			return 2, nil
		},
	}
	job, err := NewRetryJob(RetryJobParams{
		Logger:        cronTestLogger(),
		Notifications: repo,
		MaxAttempts:   5,
	})
	if err != nil {
		t.Fatalf("job setup: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if seen != 5 {
		t.Fatalf("expected max attempts 5, got %d", seen)
	}
}

func TestRetryJob_DefaultsMaxAttempts(t *testing.T) {
	var seen int
	repo := &fakeNotificationsRepo{
		resetFn: func(ctx context.Context, maxAttempts int) (int64, error) {
			seen = maxAttempts
			return 0, nil
		},
	}
	job, err := NewRetryJob(RetryJobParams{
		Logger:        cronTestLogger(),
		Notifications: repo,
	})
	if err != nil {
		t.Fatalf("job setup: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if seen != defaultMaxAttempts {
		t.Fatalf("expected default max attempts, got %d", seen)
	}
}

func TestRetryJob_RescuesStaleProcessing(t *testing.T) {
	var cutoff time.Time
	repo := &fakeNotificationsRepo{
		resetStaleFn: func(ctx context.Context, olderThan time.Time) (int64, error) {
			cutoff = olderThan
			return 1, nil
		},
	}
	job, err := NewRetryJob(RetryJobParams{
		Logger:        cronTestLogger(),
		Notifications: repo,
		StaleAfter:    30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("job setup: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	expected := time.Now().UTC().Add(-30 * time.Minute)
	if cutoff.Before(expected.Add(-time.Minute)) || cutoff.After(expected.Add(time.Minute)) {
		t.Fatalf("stale cutoff %v not near expected %v", cutoff, expected)
	}
}

func TestRetryJob_StaleResetErrorSurfaces(t *testing.T) {
	repo := &fakeNotificationsRepo{
		resetStaleFn: func(ctx context.Context, olderThan time.Time) (int64, error) {
			return 0, errors.New("connection refused")
		},
	}
	job, err := NewRetryJob(RetryJobParams{
		Logger:        cronTestLogger(),
		Notifications: repo,
	})
	if err != nil {
		t.Fatalf("job setup: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("stale reset failure must surface")
	}
}

func TestRetryJob_ErrorSurfaces(t *testing.T) {
	repo := &fakeNotificationsRepo{
		resetFn: func(ctx context.Context, maxAttempts int) (int64, error) {
			return 0, errors.New("connection refused")
		},
	}
	job, err := NewRetryJob(RetryJobParams{
		Logger:        cronTestLogger(),
		Notifications: repo,
	})
	if err != nil {
		t.Fatalf("job setup: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("reset failure must surface")
	}
}
