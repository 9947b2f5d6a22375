package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
	"github.com/oremusapp/oremus-backend/pkg/types"
)

func validScheduleParams() ScheduleParams {
	orderID := uuid.New()
	return ScheduleParams{
		UserID:  uuid.New(),
		OrderID: &orderID,
		Type:    enums.NotificationTypePaymentConfirmation,
		Trigger: "status:paid",
		Title:   "Payment received",
		Payload: types.JSONMap{"amount": "50.00 PLN"},
	}
}

func TestSchedule_CreatesPendingRow(t *testing.T) {
	var captured *models.Notification
	repo := newFakeRepository()
	repo.enqueueFn = func(ctx context.Context, notification *models.Notification) (bool, error) {
		captured = notification
		return true, nil
	}
	scheduler, err := NewScheduler(repo)
	if err != nil {
		t.Fatalf("scheduler setup: %v", err)
	}

	created, err := scheduler.Schedule(context.Background(), validScheduleParams())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !created {
		t.Fatalf("expected new row")
	}
	if captured.Status != enums.NotificationStatusPending {
		t.Fatalf("new notification must start pending, got %s", captured.Status)
	}
	if captured.ScheduledFor.IsZero() {
		t.Fatalf("schedule time should default to now")
	}
}

func TestSchedule_DuplicateTripleIsSilent(t *testing.T) {
	repo := newFakeRepository()
	repo.enqueueFn = func(ctx context.Context, notification *models.Notification) (bool, error) {
		return false, nil
	}
	scheduler, err := NewScheduler(repo)
	if err != nil {
		t.Fatalf("scheduler setup: %v", err)
	}

	created, err := scheduler.Schedule(context.Background(), validScheduleParams())
	if err != nil {
		t.Fatalf("duplicate must not error: %v", err)
	}
	if created {
		t.Fatalf("duplicate triple should report created=false")
	}
}

func TestSchedule_KeepsExplicitScheduleTime(t *testing.T) {
	var captured *models.Notification
	repo := newFakeRepository()
	repo.enqueueFn = func(ctx context.Context, notification *models.Notification) (bool, error) {
		captured = notification
		return true, nil
	}
	scheduler, err := NewScheduler(repo)
	if err != nil {
		t.Fatalf("scheduler setup: %v", err)
	}

	at := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	params := validScheduleParams()
	params.ScheduledFor = at
	if _, err := scheduler.Schedule(context.Background(), params); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !captured.ScheduledFor.Equal(at) {
		t.Fatalf("explicit schedule time lost: %v", captured.ScheduledFor)
	}
}

func TestSchedule_Validation(t *testing.T) {
	scheduler, err := NewScheduler(newFakeRepository())
	if err != nil {
		t.Fatalf("scheduler setup: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*ScheduleParams)
	}{
		{"missing user", func(p *ScheduleParams) { p.UserID = uuid.Nil }},
		{"bad type", func(p *ScheduleParams) { p.Type = "carrier_pigeon" }},
		{"missing title", func(p *ScheduleParams) { p.Title = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validScheduleParams()
			tc.mutate(&params)
			_, err := scheduler.Schedule(context.Background(), params)
			if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSchedule_RepoErrorWrapped(t *testing.T) {
	repo := newFakeRepository()
	repo.enqueueFn = func(ctx context.Context, notification *models.Notification) (bool, error) {
		return false, errors.New("deadlock detected")
	}
	scheduler, err := NewScheduler(repo)
	if err != nil {
		t.Fatalf("scheduler setup: %v", err)
	}

	_, err = scheduler.Schedule(context.Background(), validScheduleParams())
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
