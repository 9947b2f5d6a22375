package models

import (
	"time"

	"github.com/google/uuid"
)

// Parish is the venue an intention is scheduled at; read-only here.
type Parish struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null"`
	City      string    `gorm:"column:city;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
