package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oremusapp/oremus-backend/pkg/db/models"
)

// Repository exposes persistence helpers for payment mirror rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a payments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Upsert writes the mirror row keyed by the gateway id. The most recent event
// wins wholesale; there is no column-level merging.
func (r *repositoryImpl) Upsert(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"order_id", "status", "amount_cents", "currency", "last_error", "updated_at",
			}),
		}).
		Create(payment).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repositoryImpl) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
