package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
	"github.com/oremusapp/oremus-backend/pkg/types"
)

// ScheduleParams describes one notification to enqueue. OrderID plus Type
// plus Trigger identifies the logical event; scheduling the same triple
// twice is a silent no-op.
type ScheduleParams struct {
	UserID       uuid.UUID
	OrderID      *uuid.UUID
	Type         enums.NotificationType
	Trigger      string
	Title        string
	Payload      types.JSONMap
	ScheduledFor time.Time
}

// Scheduler enqueues notifications for later dispatch.
type Scheduler interface {
	Schedule(ctx context.Context, params ScheduleParams) (bool, error)
	WithRepo(repo Repository) Scheduler
}

type scheduler struct {
	repo Repository
}

// NewScheduler wires the scheduler dependencies.
func NewScheduler(repo Repository) (Scheduler, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	return &scheduler{repo: repo}, nil
}

// WithRepo rebinds the scheduler to a transaction-scoped repository.
func (s *scheduler) WithRepo(repo Repository) Scheduler {
	if repo == nil {
		return s
	}
	return &scheduler{repo: repo}
}

// Schedule inserts a pending notification row. Returns false when the
// (order_id, type, trigger) triple was already enqueued.
func (s *scheduler) Schedule(ctx context.Context, params ScheduleParams) (bool, error) {
	if params.UserID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !params.Type.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	if params.Title == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}

	scheduledFor := params.ScheduledFor
	if scheduledFor.IsZero() {
		scheduledFor = time.Now().UTC()
	}

	notification := &models.Notification{
		UserID:       params.UserID,
		OrderID:      params.OrderID,
		Type:         params.Type,
		Trigger:      params.Trigger,
		Title:        params.Title,
		Payload:      params.Payload,
		Status:       enums.NotificationStatusPending,
		ScheduledFor: scheduledFor,
	}

	created, err := s.repo.EnqueueIfNotExists(ctx, notification)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enqueue notification")
	}
	return created, nil
}
