package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/oremusapp/oremus-backend/pkg/db"
	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
)

const (
	uniqueTriggerIndex = "idx_notifications_order_type_trigger"
	uniqueAlertIndex   = "idx_notifications_user_type_trigger"
)

// Repository exposes persistence helpers for scheduled notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnqueueIfNotExists(ctx context.Context, notification *models.Notification) (bool, error)
	FetchDue(ctx context.Context, now time.Time, limit int) ([]models.Notification, error)
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, sendErr string) error
	ResetFailed(ctx context.Context, maxAttempts int) (int64, error)
	ResetStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error)
	DeleteOldSent(ctx context.Context, before time.Time) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// EnqueueIfNotExists inserts the row unless its uniqueness triple already
// exists: (order_id, type, trigger) for order-bound rows, (user_id, type,
// trigger) for rows without an order (operator alerts). The duplicate case is
// reported, not errored, so webhook replays stay silent.
func (r *repositoryImpl) EnqueueIfNotExists(ctx context.Context, notification *models.Notification) (bool, error) {
	err := r.db.WithContext(ctx).Create(notification).Error
	if err != nil {
		if dbpkg.IsUniqueViolation(err, uniqueTriggerIndex) || dbpkg.IsUniqueViolation(err, uniqueAlertIndex) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repositoryImpl) FetchDue(ctx context.Context, now time.Time, limit int) ([]models.Notification, error) {
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", enums.NotificationStatusPending, now).
		Order("scheduled_for ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Claim flips pending -> processing for exactly one row. RowsAffected == 0
// means another worker won the row. The claim touches updated_at so stale
// detection measures time since the claim, not since enqueue.
func (r *repositoryImpl) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND status = ?", id, enums.NotificationStatusPending).
		UpdateColumns(map[string]any{
			"status":     enums.NotificationStatusProcessing,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"status":     enums.NotificationStatusSent,
			"sent_at":    now,
			"last_error": nil,
			"updated_at": now,
		}).Error
}

func (r *repositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, sendErr string) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"status":        enums.NotificationStatusFailed,
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"last_error":    sendErr,
			"updated_at":    time.Now().UTC(),
		}).Error
}

// ResetFailed requeues failed rows that still have attempts left.
func (r *repositoryImpl) ResetFailed(ctx context.Context, maxAttempts int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("status = ? AND attempt_count < ?", enums.NotificationStatusFailed, maxAttempts).
		UpdateColumn("status", enums.NotificationStatusPending)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ResetStaleProcessing requeues rows a crashed worker claimed but never
// finalized. Only rows untouched since olderThan move back to pending.
func (r *repositoryImpl) ResetStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("status = ? AND updated_at < ?", enums.NotificationStatusProcessing, olderThan).
		UpdateColumn("status", enums.NotificationStatusPending)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) DeleteOldSent(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND sent_at < ?", enums.NotificationStatusSent, before).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).First(&notification, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}
