package intentions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
)

// Repository exposes persistence helpers for mass intention orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, intention *models.MassIntention) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.MassIntention, error)
	UpdateStatusCAS(ctx context.Context, params StatusUpdateParams) (bool, error)
	ListPaidInWindow(ctx context.Context, from, to time.Time) ([]models.MassIntention, error)
}

// StatusUpdateParams carries one conditional status write. The update applies
// only while the row is still in ExpectedStatus.
type StatusUpdateParams struct {
	ID             uuid.UUID
	ExpectedStatus enums.IntentionStatus
	NewStatus      enums.IntentionStatus
	PaymentID      *string
	PaymentStatus  *enums.PaymentStatus
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an intentions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, intention *models.MassIntention) error {
	return r.db.WithContext(ctx).Create(intention).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.MassIntention, error) {
	var intention models.MassIntention
	if err := r.db.WithContext(ctx).First(&intention, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &intention, nil
}

// UpdateStatusCAS performs the compare-and-set write the state machine relies
// on. RowsAffected == 0 means the expected status no longer held.
func (r *repositoryImpl) UpdateStatusCAS(ctx context.Context, params StatusUpdateParams) (bool, error) {
	updates := map[string]any{
		"status":     params.NewStatus,
		"updated_at": time.Now().UTC(),
	}
	if params.PaymentID != nil {
		updates["payment_id"] = *params.PaymentID
	}
	if params.PaymentStatus != nil {
		updates["payment_status"] = *params.PaymentStatus
	}

	result := r.db.WithContext(ctx).
		Model(&models.MassIntention{}).
		Where("id = ? AND status = ?", params.ID, params.ExpectedStatus).
		UpdateColumns(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListPaidInWindow returns paid intentions whose mass date falls inside the
// window; used by the reminder job.
func (r *repositoryImpl) ListPaidInWindow(ctx context.Context, from, to time.Time) ([]models.MassIntention, error) {
	var rows []models.MassIntention
	err := r.db.WithContext(ctx).
		Where("status = ? AND mass_date >= ? AND mass_date < ?", enums.IntentionStatusPaid, from, to).
		Order("mass_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
