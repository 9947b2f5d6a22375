package events

import (
	"github.com/google/uuid"

	"github.com/oremusapp/oremus-backend/pkg/enums"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
)

// PaymentEvent is the canonical, provider-neutral payment fact handed to the
// order state machine. Adapters produce it; nothing downstream sees raw
// gateway payloads.
type PaymentEvent struct {
	Type        enums.PaymentEventType
	EventID     string
	OrderID     uuid.UUID
	PaymentID   string
	AmountCents int
	Currency    enums.Currency
	FailureMsg  string
}

// Validate checks the invariants every adapter must uphold before the event
// crosses into the domain.
func (e PaymentEvent) Validate() error {
	if !e.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment event type")
	}
	if e.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if e.PaymentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	return nil
}
