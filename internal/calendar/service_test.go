package calendar

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	"github.com/oremusapp/oremus-backend/pkg/logger"
)

type fakeRepository struct {
	created  []*models.CalendarEvent
	createFn func(ctx context.Context, event *models.CalendarEvent) error
}

func (f *fakeRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	if f.createFn != nil {
		return f.createFn(ctx, event)
	}
	f.created = append(f.created, event)
	return nil
}

func (f *fakeRepository) ListByParish(ctx context.Context, parishID string, from, to time.Time) ([]models.CalendarEvent, error) {
	return nil, nil
}

func newTestService(t *testing.T, repo *fakeRepository) *Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("service setup: %v", err)
	}
	return svc
}

func TestScheduleMass_CreatesEntry(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	massDate := time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)
	intention := &models.MassIntention{
		ID:           uuid.New(),
		ParishID:     uuid.New(),
		IntentionFor: "Anna Kowalska",
		MassType:     enums.MassTypeRequiem,
		MassDate:     massDate,
	}

	svc.ScheduleMass(context.Background(), intention)

	if len(repo.created) != 1 {
		t.Fatalf("expected one calendar entry, got %d", len(repo.created))
	}
	entry := repo.created[0]
	if entry.ParishID != intention.ParishID {
		t.Fatalf("entry not bound to parish")
	}
	if !entry.StartTime.Equal(massDate) || !entry.EndTime.Equal(massDate.Add(time.Hour)) {
		t.Fatalf("unexpected slot %v - %v", entry.StartTime, entry.EndTime)
	}
	if entry.Metadata["order_id"] != intention.ID.String() {
		t.Fatalf("entry should reference the order")
	}
}

func TestScheduleMass_SwallowsRepoError(t *testing.T) {
	repo := &fakeRepository{
		createFn: func(ctx context.Context, event *models.CalendarEvent) error {
			return errors.New("insert failed")
		},
	}
	svc := newTestService(t, repo)

	// Best effort: a failure here must never panic or propagate.
	svc.ScheduleMass(context.Background(), &models.MassIntention{ID: uuid.New()})
}

func TestScheduleMass_NilIntentionIsNoOp(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	svc.ScheduleMass(context.Background(), nil)
	if len(repo.created) != 0 {
		t.Fatalf("nil intention must not create an entry")
	}
}
