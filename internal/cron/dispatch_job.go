package cron

import (
	"context"
	"fmt"

	"github.com/oremusapp/oremus-backend/internal/notifications"
	"github.com/oremusapp/oremus-backend/pkg/logger"
)

type DispatchJobParams struct {
	Logger     *logger.Logger
	Dispatcher *notifications.Dispatcher
}

// NewDispatchJob wraps one dispatcher pass as a scheduled job.
func NewDispatchJob(params DispatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	return &dispatchJob{
		logg:       params.Logger,
		dispatcher: params.Dispatcher,
	}, nil
}

type dispatchJob struct {
	logg       *logger.Logger
	dispatcher *notifications.Dispatcher
}

func (j *dispatchJob) Name() string { return "notification-dispatch" }

func (j *dispatchJob) Run(ctx context.Context) error {
	result, err := j.dispatcher.DispatchDue(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"claimed": result.Claimed,
		"sent":    result.Sent,
		"failed":  result.Failed,
		"skipped": result.Skipped,
	})
	if err != nil {
		return fmt.Errorf("notification dispatch: %w", err)
	}
	j.logg.Info(logCtx, "notification dispatch complete")
	return nil
}
