package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/oremusapp/oremus-backend/internal/users"
	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
	"github.com/oremusapp/oremus-backend/pkg/logger"
	"github.com/oremusapp/oremus-backend/pkg/mailer"
	"github.com/oremusapp/oremus-backend/pkg/metrics"
	"github.com/oremusapp/oremus-backend/pkg/types"
)

const (
	defaultBatchSize   = 25
	defaultSendTimeout = 10 * time.Second
)

// DispatchResult summarizes one dispatcher pass.
type DispatchResult struct {
	Claimed int
	Sent    int
	Failed  int
	Skipped int
}

// DispatcherParams wires the dispatcher dependencies. Alerts and AlertUserID
// are optional; when both are set, delivery failures enqueue an operator
// alert notification.
type DispatcherParams struct {
	Repo        Repository
	Users       users.Repository
	Sender      mailer.Sender
	Logger      *logger.Logger
	Metrics     *metrics.NotificationMetrics
	Alerts      Scheduler
	AlertUserID uuid.UUID
	BatchSize   int
	SendTimeout time.Duration
}

// Dispatcher drains due pending notifications through the mail transport.
// Each row is claimed with a conditional update before sending so concurrent
// workers never double-deliver.
type Dispatcher struct {
	repo        Repository
	users       users.Repository
	sender      mailer.Sender
	logg        *logger.Logger
	metrics     *metrics.NotificationMetrics
	alerts      Scheduler
	alertUserID uuid.UUID
	batchSize   int
	sendTimeout time.Duration
}

// NewDispatcher validates dependencies and builds a Dispatcher.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repository required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mail sender required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.BatchSize <= 0 {
		params.BatchSize = defaultBatchSize
	}
	if params.SendTimeout <= 0 {
		params.SendTimeout = defaultSendTimeout
	}
	return &Dispatcher{
		repo:        params.Repo,
		users:       params.Users,
		sender:      params.Sender,
		logg:        params.Logger,
		metrics:     params.Metrics,
		alerts:      params.Alerts,
		alertUserID: params.AlertUserID,
		batchSize:   params.BatchSize,
		sendTimeout: params.SendTimeout,
	}, nil
}

// DispatchDue processes one batch of due notifications. A delivery failure
// marks its own row failed and never aborts the batch; only infrastructure
// errors (fetch, claim, finalize) are accumulated and returned.
func (d *Dispatcher) DispatchDue(ctx context.Context) (DispatchResult, error) {
	var result DispatchResult

	due, err := d.repo.FetchDue(ctx, time.Now().UTC(), d.batchSize)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch due notifications")
	}

	var errs error
	for i := range due {
		notification := due[i]
		nctx := d.logg.WithFields(ctx, map[string]any{
			"notification_id":   notification.ID,
			"notification_type": notification.Type,
		})

		claimed, err := d.repo.Claim(ctx, notification.ID)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !claimed {
			result.Skipped++
			continue
		}
		result.Claimed++

		if err := d.deliver(nctx, &notification); err != nil {
			result.Failed++
			d.metrics.IncFailed(string(notification.Type))
			d.logg.Warn(nctx, "notification delivery failed: "+err.Error())
			if markErr := d.repo.MarkFailed(ctx, notification.ID, err.Error()); markErr != nil {
				errs = multierr.Append(errs, markErr)
			}
			d.alertFailure(nctx, &notification, err)
			continue
		}

		result.Sent++
		d.metrics.IncSent(string(notification.Type))
		if markErr := d.repo.MarkSent(ctx, notification.ID, time.Now().UTC()); markErr != nil {
			errs = multierr.Append(errs, markErr)
		}
	}

	return result, errs
}

func (d *Dispatcher) deliver(ctx context.Context, notification *models.Notification) error {
	recipient, err := d.users.FindByID(ctx, notification.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "recipient not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipient")
	}
	if recipient.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient has no email")
	}

	msg := composeMessage(notification, recipient)

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	return d.sender.Send(sendCtx, msg)
}

// alertFailure enqueues an operator alert for a failed delivery. Alert rows
// themselves never alert, otherwise a broken transport would loop.
func (d *Dispatcher) alertFailure(ctx context.Context, notification *models.Notification, cause error) {
	if d.alerts == nil || d.alertUserID == uuid.Nil {
		return
	}
	if notification.Type == enums.NotificationTypeWebhookFailureAlert {
		return
	}
	_, err := d.alerts.Schedule(ctx, ScheduleParams{
		UserID:  d.alertUserID,
		OrderID: notification.OrderID,
		Type:    enums.NotificationTypeWebhookFailureAlert,
		Trigger: "alert:" + notification.ID.String(),
		Title:   "Notification delivery failed",
		Payload: types.JSONMap{
			"notification_id": notification.ID.String(),
			"error":           cause.Error(),
		},
	})
	if err != nil {
		d.logg.Warn(ctx, "failure alert enqueue failed: "+err.Error())
	}
}
