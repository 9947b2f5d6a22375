package stripewebhook

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/oremusapp/oremus-backend/internal/events"
	"github.com/oremusapp/oremus-backend/internal/notifications"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
	"github.com/oremusapp/oremus-backend/pkg/logger"
	"github.com/oremusapp/oremus-backend/pkg/types"
)

type eventApplier interface {
	Apply(ctx context.Context, event events.PaymentEvent) error
}

type ServiceParams struct {
	Machine     eventApplier
	Guard       *IdempotencyGuard
	Scheduler   notifications.Scheduler
	Logger      *logger.Logger
	AlertUserID string
}

// Service owns the provider-event half of webhook handling: deduplication,
// translation to the canonical event, and handing off to the state machine.
// Signature verification happens upstream at the HTTP edge.
type Service struct {
	machine     eventApplier
	guard       *IdempotencyGuard
	scheduler   notifications.Scheduler
	logg        *logger.Logger
	alertUserID uuid.UUID
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Machine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "state machine required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Scheduler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notification scheduler required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}

	service := &Service{
		machine:   params.Machine,
		guard:     params.Guard,
		scheduler: params.Scheduler,
		logg:      params.Logger,
	}
	if params.AlertUserID != "" {
		parsed, err := uuid.Parse(params.AlertUserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid alert user id")
		}
		service.alertUserID = parsed
	}
	return service, nil
}

// HandleEvent processes one verified provider event. Ignored types, missing
// orders and illegal transitions return nil so the boundary acks them; only
// transient failures propagate (and release the dedup mark so the provider's
// retry is reprocessed).
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"stripe_event_id":   event.ID,
		"stripe_event_type": event.Type,
	})

	duplicate, err := s.guard.CheckAndMark(ctx, event.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check")
	}
	if duplicate {
		s.logg.Info(ctx, "duplicate webhook event, skipping")
		return nil
	}

	canonical, err := MapEvent(event)
	if err != nil {
		if errors.Is(err, ErrIgnoredEvent) {
			return nil
		}
		// Unusable payload: ack so the provider stops redelivering.
		s.logg.Warn(ctx, "webhook event unmappable: "+err.Error())
		return nil
	}

	if err := s.machine.Apply(ctx, canonical); err != nil {
		if domainErr := pkgerrors.As(err); domainErr != nil {
			switch domainErr.Code() {
			case pkgerrors.CodeNotFound, pkgerrors.CodeStateConflict:
				s.logg.Warn(ctx, "webhook event dropped: "+domainErr.Error())
				return nil
			}
		}

		// Transient: free the dedup mark so the provider retry can land.
		if delErr := s.guard.Delete(ctx, event.ID); delErr != nil {
			s.logg.Error(ctx, "failed to release idempotency key", delErr)
		}
		s.alertFailure(ctx, event, err)
		return err
	}
	return nil
}

// alertFailure enqueues an operator notification about the failed event.
// Deduped per provider event id so retries do not pile up alert rows.
func (s *Service) alertFailure(ctx context.Context, event *stripe.Event, cause error) {
	if s.alertUserID == uuid.Nil {
		return
	}
	_, err := s.scheduler.Schedule(ctx, notifications.ScheduleParams{
		UserID:  s.alertUserID,
		Type:    enums.NotificationTypeWebhookFailureAlert,
		Trigger: "event:" + event.ID,
		Title:   "Payment webhook processing failed",
		Payload: types.JSONMap{
			"stripe_event_id":   event.ID,
			"stripe_event_type": string(event.Type),
			"error":             cause.Error(),
		},
	})
	if err != nil {
		s.logg.Error(ctx, "failed to enqueue webhook failure alert", err)
	}
}
