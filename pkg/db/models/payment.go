package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oremusapp/oremus-backend/pkg/enums"
)

// Payment mirrors the gateway's transaction state for one order. The primary
// key is the gateway-assigned id; rows carry no business logic of their own
// and the most recent event always wins.
type Payment struct {
	ID          string              `gorm:"column:id;type:text;primaryKey"`
	OrderID     uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	Status      enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	AmountCents int                 `gorm:"column:amount_cents;not null"`
	Currency    enums.Currency      `gorm:"column:currency;type:text;not null;default:'PLN'"`
	LastError   *string             `gorm:"column:last_error;type:text"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
