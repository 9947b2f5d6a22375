package models

import (
	"time"

	"github.com/google/uuid"
)

// User carries the contact surface the dispatcher needs; account management
// lives elsewhere.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
