package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oremusapp/oremus-backend/pkg/enums"
	"github.com/oremusapp/oremus-backend/pkg/types"
)

// Notification is one scheduled message destined for a user. The
// (order_id, type, trigger) triple is unique so a logical trigger can never
// enqueue twice; the dispatcher is the only writer after creation.
type Notification struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID                `gorm:"column:user_id;type:uuid;not null"`
	OrderID      *uuid.UUID               `gorm:"column:order_id;type:uuid"`
	Type         enums.NotificationType   `gorm:"column:type;type:notification_type;not null"`
	Trigger      string                   `gorm:"column:trigger;type:text;not null"`
	Title        string                   `gorm:"column:title;type:text;not null"`
	Payload      types.JSONMap            `gorm:"column:payload;type:jsonb;serializer:json"`
	Status       enums.NotificationStatus `gorm:"column:status;type:notification_status;not null;default:'pending'"`
	ScheduledFor time.Time                `gorm:"column:scheduled_for;not null"`
	AttemptCount int                      `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string                  `gorm:"column:last_error;type:text"`
	SentAt       *time.Time               `gorm:"column:sent_at"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
