package calendar

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oremusapp/oremus-backend/pkg/db/models"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
	"github.com/oremusapp/oremus-backend/pkg/logger"
	"github.com/oremusapp/oremus-backend/pkg/types"
)

const defaultMassDuration = time.Hour

// Repository persists parish calendar entries.
type Repository interface {
	Create(ctx context.Context, event *models.CalendarEvent) error
	ListByParish(ctx context.Context, parishID string, from, to time.Time) ([]models.CalendarEvent, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a calendar repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, event *models.CalendarEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repositoryImpl) ListByParish(ctx context.Context, parishID string, from, to time.Time) ([]models.CalendarEvent, error) {
	var rows []models.CalendarEvent
	err := r.db.WithContext(ctx).
		Where("parish_id = ? AND start_time >= ? AND start_time < ?", parishID, from, to).
		Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Service writes best-effort calendar entries for paid intentions. Failures
// are logged and never surfaced to the caller.
type Service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the calendar dependencies.
func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "calendar repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// ScheduleMass records the mass in the parish calendar. Best effort only: an
// error leaves the paid order untouched.
func (s *Service) ScheduleMass(ctx context.Context, intention *models.MassIntention) {
	if intention == nil {
		return
	}

	event := &models.CalendarEvent{
		ParishID:    intention.ParishID,
		Title:       fmt.Sprintf("Mass intention: %s", intention.IntentionFor),
		Description: fmt.Sprintf("%s mass for %q", intention.MassType, intention.IntentionFor),
		StartTime:   intention.MassDate,
		EndTime:     intention.MassDate.Add(defaultMassDuration),
		Metadata: types.JSONMap{
			"order_id":  intention.ID.String(),
			"mass_type": string(intention.MassType),
		},
		Status: "scheduled",
	}

	if err := s.repo.Create(ctx, event); err != nil {
		ctx = s.logg.WithOrderID(ctx, intention.ID.String())
		s.logg.Error(ctx, "calendar entry creation failed", err)
	}
}
