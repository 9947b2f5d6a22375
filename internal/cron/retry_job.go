package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/oremusapp/oremus-backend/internal/notifications"
	"github.com/oremusapp/oremus-backend/pkg/logger"
)

const (
	defaultMaxAttempts = 3
	defaultStaleAfter  = 15 * time.Minute
)

type RetryJobParams struct {
	Logger        *logger.Logger
	Notifications notifications.Repository
	MaxAttempts   int
	StaleAfter    time.Duration
}

// NewRetryJob requeues failed notifications that still have attempts left,
// and rescues rows a crashed worker left stuck in processing. This is the
// only path that moves a row out of failed.
func NewRetryJob(params RetryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &retryJob{
		logg:        params.Logger,
		repo:        params.Notifications,
		maxAttempts: maxAttempts,
		staleAfter:  staleAfter,
	}, nil
}

type retryJob struct {
	logg        *logger.Logger
	repo        notifications.Repository
	maxAttempts int
	staleAfter  time.Duration
}

func (j *retryJob) Name() string { return "failed-notification-retry" }

func (j *retryJob) Run(ctx context.Context) error {
	requeued, err := j.repo.ResetFailed(ctx, j.maxAttempts)
	if err != nil {
		return fmt.Errorf("failed notification retry: %w", err)
	}

	rescued, err := j.repo.ResetStaleProcessing(ctx, time.Now().UTC().Add(-j.staleAfter))
	if err != nil {
		return fmt.Errorf("stale processing reset: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"max_attempts": j.maxAttempts,
		"requeued":     requeued,
		"rescued":      rescued,
	})
	j.logg.Info(logCtx, "failed notification retry complete")
	return nil
}
