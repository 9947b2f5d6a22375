package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oremusapp/oremus-backend/pkg/enums"
)

// MassIntention is the canonical order row for a purchased intention. Status
// moves only through the state machine's conditional updates; nothing else
// writes the column.
type MassIntention struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ParishID      uuid.UUID             `gorm:"column:parish_id;type:uuid;not null"`
	UserID        uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	IntentionFor  string                `gorm:"column:intention_for;type:text;not null"`
	MassDate      time.Time             `gorm:"column:mass_date;not null"`
	MassType      enums.MassType        `gorm:"column:mass_type;type:mass_type;not null;default:'regular'"`
	Status        enums.IntentionStatus `gorm:"column:status;type:intention_status;not null;default:'pending_payment'"`
	Email         string                `gorm:"column:email;type:text;not null"`
	PaymentID     *string               `gorm:"column:payment_id;type:text"`
	PaymentStatus *enums.PaymentStatus  `gorm:"column:payment_status;type:payment_status"`
	AmountCents   int                   `gorm:"column:amount_cents;not null"`
	Currency      enums.Currency        `gorm:"column:currency;type:text;not null;default:'PLN'"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
