package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/oremusapp/oremus-backend/internal/notifications"
	"github.com/oremusapp/oremus-backend/pkg/logger"
)

const defaultRetentionDays = 30

type RetentionJobParams struct {
	Logger        *logger.Logger
	Notifications notifications.Repository
	RetentionDays int
}

// NewRetentionJob deletes sent notifications past the retention window.
func NewRetentionJob(params RetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultRetentionDays
	}
	return &retentionJob{
		logg:      params.Logger,
		repo:      params.Notifications,
		retention: retention,
		now:       time.Now,
	}, nil
}

type retentionJob struct {
	logg      *logger.Logger
	repo      notifications.Repository
	retention int
	now       func() time.Time
}

func (j *retentionJob) Name() string { return "notification-retention" }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeleteOldSent(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "notification retention complete")
	return nil
}
