package intentions

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oremusapp/oremus-backend/internal/events"
	"github.com/oremusapp/oremus-backend/internal/notifications"
	"github.com/oremusapp/oremus-backend/internal/payments"
	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
	"github.com/oremusapp/oremus-backend/pkg/logger"
	"github.com/oremusapp/oremus-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type calendarScheduler interface {
	ScheduleMass(ctx context.Context, intention *models.MassIntention)
}

// MachineParams wires the state machine dependencies.
type MachineParams struct {
	Repo              Repository
	PaymentsRepo      payments.Repository
	PaymentsService   payments.Service
	NotificationsRepo notifications.Repository
	Scheduler         notifications.Scheduler
	Calendar          calendarScheduler
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Machine applies canonical payment events to intention orders. It is the
// only writer of the status column.
type Machine struct {
	repo              Repository
	paymentsRepo      payments.Repository
	paymentsService   payments.Service
	notificationsRepo notifications.Repository
	scheduler         notifications.Scheduler
	calendar          calendarScheduler
	txRunner          txRunner
	logg              *logger.Logger
}

// NewMachine validates dependencies and builds the state machine.
func NewMachine(params MachineParams) (*Machine, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "intentions repository required")
	}
	if params.PaymentsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repository required")
	}
	if params.PaymentsService == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	if params.NotificationsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	if params.Scheduler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notification scheduler required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Machine{
		repo:              params.Repo,
		paymentsRepo:      params.PaymentsRepo,
		paymentsService:   params.PaymentsService,
		notificationsRepo: params.NotificationsRepo,
		scheduler:         params.Scheduler,
		calendar:          params.Calendar,
		txRunner:          params.TransactionRunner,
		logg:              params.Logger,
	}, nil
}

// Apply runs one canonical event through the machine. The status write, the
// payment mirror upsert and the notification enqueue commit in a single
// transaction; the calendar entry is requested after commit, best effort.
func (m *Machine) Apply(ctx context.Context, event events.PaymentEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	edge, ok := transitionTable[event.Type]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "no transition for event type")
	}

	ctx = m.logg.WithFields(ctx, map[string]any{
		"order_id":   event.OrderID,
		"payment_id": event.PaymentID,
		"event_type": event.Type,
	})

	var applied *models.MassIntention
	err := m.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.repo.WithTx(tx)

		intention, err := repo.FindByID(ctx, event.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// Replay of an already-applied event: refresh the mirror, skip the rest.
		if intention.Status == edge.target {
			m.logg.Info(ctx, "event already applied, replay no-op")
			return m.paymentsService.WithRepo(m.paymentsRepo.WithTx(tx)).RecordEvent(ctx, event)
		}

		if !edge.allowsFrom(intention.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("illegal transition %s -> %s", intention.Status, edge.target))
		}

		won, err := m.transitionOnce(ctx, repo, intention, event, edge)
		if err != nil {
			return err
		}
		if !won {
			// Lost the race: reload and retry exactly once against the new row.
			reloaded, err := repo.FindByID(ctx, event.OrderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
			}
			if reloaded.Status == edge.target {
				m.logg.Info(ctx, "event applied concurrently, replay no-op")
				return m.paymentsService.WithRepo(m.paymentsRepo.WithTx(tx)).RecordEvent(ctx, event)
			}
			if !edge.allowsFrom(reloaded.Status) {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("illegal transition %s -> %s", reloaded.Status, edge.target))
			}
			won, err = m.transitionOnce(ctx, repo, reloaded, event, edge)
			if err != nil {
				return err
			}
			if !won {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
			}
			intention = reloaded
		}

		if err := m.paymentsService.WithRepo(m.paymentsRepo.WithTx(tx)).RecordEvent(ctx, event); err != nil {
			return err
		}

		intention.Status = edge.target
		if err := m.enqueueForTransition(ctx, tx, intention, event, edge.target); err != nil {
			return err
		}

		applied = intention
		return nil
	})
	if err != nil {
		return err
	}

	if applied != nil && applied.Status == enums.IntentionStatusPaid && m.calendar != nil {
		m.calendar.ScheduleMass(ctx, applied)
	}
	return nil
}

func (m *Machine) transitionOnce(ctx context.Context, repo Repository, intention *models.MassIntention, event events.PaymentEvent, edge transition) (bool, error) {
	paymentStatus := paymentStatusForTarget(edge.target)
	won, err := repo.UpdateStatusCAS(ctx, StatusUpdateParams{
		ID:             intention.ID,
		ExpectedStatus: intention.Status,
		NewStatus:      edge.target,
		PaymentID:      &event.PaymentID,
		PaymentStatus:  &paymentStatus,
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return won, nil
}

func (m *Machine) enqueueForTransition(ctx context.Context, tx *gorm.DB, intention *models.MassIntention, event events.PaymentEvent, target enums.IntentionStatus) error {
	notificationType, title, ok := notificationForStatus(target)
	if !ok {
		return nil
	}

	orderID := intention.ID
	payload := types.JSONMap{
		"intention_for": intention.IntentionFor,
		"mass_date":     intention.MassDate.Format("2006-01-02"),
		"amount":        formatAmount(event.AmountCents, event.Currency),
	}
	if event.FailureMsg != "" {
		payload["error"] = event.FailureMsg
	}

	_, err := m.scheduler.WithRepo(m.notificationsRepo.WithTx(tx)).Schedule(ctx, notifications.ScheduleParams{
		UserID:  intention.UserID,
		OrderID: &orderID,
		Type:    notificationType,
		Trigger: "status:" + string(target),
		Title:   title,
		Payload: payload,
	})
	return err
}

func notificationForStatus(status enums.IntentionStatus) (enums.NotificationType, string, bool) {
	switch status {
	case enums.IntentionStatusPaid:
		return enums.NotificationTypePaymentConfirmation, "Payment received", true
	case enums.IntentionStatusPaymentFailed:
		return enums.NotificationTypePaymentFailed, "Payment failed", true
	case enums.IntentionStatusRefunded:
		return enums.NotificationTypeRefundConfirmation, "Payment refunded", true
	default:
		return "", "", false
	}
}

func paymentStatusForTarget(target enums.IntentionStatus) enums.PaymentStatus {
	switch target {
	case enums.IntentionStatusPaid:
		return enums.PaymentStatusCompleted
	case enums.IntentionStatusPaymentFailed:
		return enums.PaymentStatusFailed
	case enums.IntentionStatusCanceled:
		return enums.PaymentStatusCanceled
	case enums.IntentionStatusRefunded:
		return enums.PaymentStatusRefunded
	default:
		return enums.PaymentStatusPending
	}
}

func formatAmount(cents int, currency enums.Currency) string {
	if currency == "" {
		currency = enums.CurrencyPLN
	}
	return fmt.Sprintf("%.2f %s", float64(cents)/100, currency)
}
