package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/oremusapp/oremus-backend/internal/events"
	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
)

// Service maintains the payment mirror table from canonical payment events.
type Service interface {
	RecordEvent(ctx context.Context, event events.PaymentEvent) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
	WithRepo(repo Repository) Service
}

type service struct {
	repo Repository
}

// NewService wires the payments dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repository required")
	}
	return &service{repo: repo}, nil
}

// WithRepo rebinds the service to a transaction-scoped repository.
func (s *service) WithRepo(repo Repository) Service {
	if repo == nil {
		return s
	}
	return &service{repo: repo}
}

// RecordEvent upserts the mirror row for the event's payment id. Last write
// wins; an out-of-order older event simply overwrites and a later one
// overwrites back.
func (s *service) RecordEvent(ctx context.Context, event events.PaymentEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	payment := &models.Payment{
		ID:          event.PaymentID,
		OrderID:     event.OrderID,
		Status:      statusForEvent(event.Type),
		AmountCents: event.AmountCents,
		Currency:    event.Currency,
	}
	if payment.Currency == "" {
		payment.Currency = enums.CurrencyPLN
	}
	if event.FailureMsg != "" {
		msg := event.FailureMsg
		payment.LastError = &msg
	}

	if err := s.repo.Upsert(ctx, payment); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert payment")
	}
	return nil
}

func (s *service) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	rows, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}

func statusForEvent(eventType enums.PaymentEventType) enums.PaymentStatus {
	switch eventType {
	case enums.PaymentEventSucceeded:
		return enums.PaymentStatusCompleted
	case enums.PaymentEventFailed:
		return enums.PaymentStatusFailed
	case enums.PaymentEventCanceled:
		return enums.PaymentStatusCanceled
	case enums.PaymentEventRefunded:
		return enums.PaymentStatusRefunded
	default:
		return enums.PaymentStatusPending
	}
}
