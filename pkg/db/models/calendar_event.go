package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oremusapp/oremus-backend/pkg/types"
)

// CalendarEvent is a best-effort parish calendar entry created when an
// intention is paid. Failures writing it never propagate.
type CalendarEvent struct {
	ID          uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ParishID    uuid.UUID     `gorm:"column:parish_id;type:uuid;not null"`
	Title       string        `gorm:"column:title;type:text;not null"`
	Description string        `gorm:"column:description;type:text;not null"`
	StartTime   time.Time     `gorm:"column:start_time;not null"`
	EndTime     time.Time     `gorm:"column:end_time;not null"`
	Metadata    types.JSONMap `gorm:"column:metadata;type:jsonb;serializer:json"`
	Status      string        `gorm:"column:status;type:text;not null;default:'scheduled'"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
}
