package intentions

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oremusapp/oremus-backend/internal/events"
	"github.com/oremusapp/oremus-backend/internal/notifications"
	"github.com/oremusapp/oremus-backend/internal/payments"
	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
	"github.com/oremusapp/oremus-backend/pkg/logger"
)

type fakeRepository struct {
	findFn   func(ctx context.Context, id uuid.UUID) (*models.MassIntention, error)
	casFn    func(ctx context.Context, params StatusUpdateParams) (bool, error)
	casCalls []StatusUpdateParams
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, intention *models.MassIntention) error {
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.MassIntention, error) {
	if f.findFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.findFn(ctx, id)
}

func (f *fakeRepository) UpdateStatusCAS(ctx context.Context, params StatusUpdateParams) (bool, error) {
	f.casCalls = append(f.casCalls, params)
	if f.casFn == nil {
		return true, nil
	}
	return f.casFn(ctx, params)
}

func (f *fakeRepository) ListPaidInWindow(ctx context.Context, from, to time.Time) ([]models.MassIntention, error) {
	return nil, nil
}

type fakePaymentsRepo struct {
	upserts []*models.Payment
}

func (f *fakePaymentsRepo) WithTx(tx *gorm.DB) payments.Repository { return f }

func (f *fakePaymentsRepo) Upsert(ctx context.Context, payment *models.Payment) error {
	f.upserts = append(f.upserts, payment)
	return nil
}

func (f *fakePaymentsRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePaymentsRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	return nil, nil
}

type fakeNotificationsRepo struct {
	enqueued  []*models.Notification
	enqueueFn func(ctx context.Context, notification *models.Notification) (bool, error)
}

func (f *fakeNotificationsRepo) WithTx(tx *gorm.DB) notifications.Repository { return f }

func (f *fakeNotificationsRepo) EnqueueIfNotExists(ctx context.Context, notification *models.Notification) (bool, error) {
	if f.enqueueFn != nil {
		return f.enqueueFn(ctx, notification)
	}
	f.enqueued = append(f.enqueued, notification)
	return true, nil
}

func (f *fakeNotificationsRepo) FetchDue(ctx context.Context, now time.Time, limit int) ([]models.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationsRepo) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeNotificationsRepo) MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error {
	return nil
}

func (f *fakeNotificationsRepo) MarkFailed(ctx context.Context, id uuid.UUID, sendErr string) error {
	return nil
}

func (f *fakeNotificationsRepo) ResetFailed(ctx context.Context, maxAttempts int) (int64, error) {
	return 0, nil
}

func (f *fakeNotificationsRepo) ResetStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeNotificationsRepo) DeleteOldSent(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeNotificationsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	return nil, gorm.ErrRecordNotFound
}

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeCalendar struct {
	scheduled []*models.MassIntention
}

func (f *fakeCalendar) ScheduleMass(ctx context.Context, intention *models.MassIntention) {
	f.scheduled = append(f.scheduled, intention)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestMachine(t *testing.T, repo *fakeRepository, paymentsRepo *fakePaymentsRepo, notificationsRepo *fakeNotificationsRepo, cal *fakeCalendar) *Machine {
	t.Helper()
	paymentsService, err := payments.NewService(paymentsRepo)
	if err != nil {
		t.Fatalf("payments service setup: %v", err)
	}
	scheduler, err := notifications.NewScheduler(notificationsRepo)
	if err != nil {
		t.Fatalf("scheduler setup: %v", err)
	}
	params := MachineParams{
		Repo:              repo,
		PaymentsRepo:      paymentsRepo,
		PaymentsService:   paymentsService,
		NotificationsRepo: notificationsRepo,
		Scheduler:         scheduler,
		TransactionRunner: &stubTxRunner{},
		Logger:            testLogger(),
	}
	if cal != nil {
		params.Calendar = cal
	}
	machine, err := NewMachine(params)
	if err != nil {
		t.Fatalf("machine setup: %v", err)
	}
	return machine
}

func pendingIntention(id uuid.UUID) *models.MassIntention {
	return &models.MassIntention{
		ID:           id,
		ParishID:     uuid.New(),
		UserID:       uuid.New(),
		IntentionFor: "Anna Kowalska",
		MassDate:     time.Now().UTC().Add(7 * 24 * time.Hour),
		MassType:     enums.MassTypeRegular,
		Status:       enums.IntentionStatusPendingPayment,
		AmountCents:  5000,
		Currency:     enums.CurrencyPLN,
	}
}

func succeededEvent(orderID uuid.UUID) events.PaymentEvent {
	return events.PaymentEvent{
		Type:        enums.PaymentEventSucceeded,
		EventID:     "evt_1",
		OrderID:     orderID,
		PaymentID:   "pi_123",
		AmountCents: 5000,
		Currency:    enums.CurrencyPLN,
	}
}

func TestMachineApply_SucceededMovesToPaid(t *testing.T) {
	orderID := uuid.New()
	intention := pendingIntention(orderID)
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.MassIntention, error) {
			return intention, nil
		},
	}
	paymentsRepo := &fakePaymentsRepo{}
	notificationsRepo := &fakeNotificationsRepo{}
	cal := &fakeCalendar{}
	machine := newTestMachine(t, repo, paymentsRepo, notificationsRepo, cal)

	if err := machine.Apply(context.Background(), succeededEvent(orderID)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if len(repo.casCalls) != 1 {
		t.Fatalf("expected one status update, got %d", len(repo.casCalls))
	}
	cas := repo.casCalls[0]
	if cas.ExpectedStatus != enums.IntentionStatusPendingPayment || cas.NewStatus != enums.IntentionStatusPaid {
		t.Fatalf("unexpected transition %s -> %s", cas.ExpectedStatus, cas.NewStatus)
	}
	if cas.PaymentStatus == nil || *cas.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected denormalized payment status completed, got %v", cas.PaymentStatus)
	}

	if len(paymentsRepo.upserts) != 1 {
		t.Fatalf("expected one payment upsert, got %d", len(paymentsRepo.upserts))
	}
	if paymentsRepo.upserts[0].ID != "pi_123" || paymentsRepo.upserts[0].Status != enums.PaymentStatusCompleted {
		t.Fatalf("unexpected payment mirror row: %+v", paymentsRepo.upserts[0])
	}

	if len(notificationsRepo.enqueued) != 1 {
		t.Fatalf("expected one notification, got %d", len(notificationsRepo.enqueued))
	}
	row := notificationsRepo.enqueued[0]
	if row.Type != enums.NotificationTypePaymentConfirmation {
		t.Fatalf("expected payment confirmation, got %s", row.Type)
	}
	if row.Trigger != "status:paid" {
		t.Fatalf("unexpected trigger %q", row.Trigger)
	}
	if row.OrderID == nil || *row.OrderID != orderID {
		t.Fatalf("notification not bound to order")
	}

	if len(cal.scheduled) != 1 {
		t.Fatalf("expected calendar entry for paid order, got %d", len(cal.scheduled))
	}
}

func TestMachineApply_ReplayIsNoOp(t *testing.T) {
	orderID := uuid.New()
	intention := pendingIntention(orderID)
	intention.Status = enums.IntentionStatusPaid
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.MassIntention, error) {
			return intention, nil
		},
	}
	paymentsRepo := &fakePaymentsRepo{}
	notificationsRepo := &fakeNotificationsRepo{}
	cal := &fakeCalendar{}
	machine := newTestMachine(t, repo, paymentsRepo, notificationsRepo, cal)

	if err := machine.Apply(context.Background(), succeededEvent(orderID)); err != nil {
		t.Fatalf("apply replay: %v", err)
	}

	if len(repo.casCalls) != 0 {
		t.Fatalf("replay must not touch the status column")
	}
	if len(paymentsRepo.upserts) != 1 {
		t.Fatalf("replay should still refresh the payment mirror, got %d upserts", len(paymentsRepo.upserts))
	}
	if len(notificationsRepo.enqueued) != 0 {
		t.Fatalf("replay must not enqueue a second notification")
	}
	if len(cal.scheduled) != 0 {
		t.Fatalf("replay must not request a second calendar entry")
	}
}

func TestMachineApply_StaleFailureAfterPaid(t *testing.T) {
	orderID := uuid.New()
	intention := pendingIntention(orderID)
	intention.Status = enums.IntentionStatusPaid
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.MassIntention, error) {
			return intention, nil
		},
	}
	machine := newTestMachine(t, repo, &fakePaymentsRepo{}, &fakeNotificationsRepo{}, nil)

	event := succeededEvent(orderID)
	event.Type = enums.PaymentEventFailed
	event.FailureMsg = "card declined"

	err := machine.Apply(context.Background(), event)
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for stale failure, got %v", err)
	}
	if len(repo.casCalls) != 0 {
		t.Fatalf("illegal edge must not write the status column")
	}
}

func TestMachineApply_RefundFromPaid(t *testing.T) {
	orderID := uuid.New()
	intention := pendingIntention(orderID)
	intention.Status = enums.IntentionStatusPaid
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.MassIntention, error) {
			return intention, nil
		},
	}
	notificationsRepo := &fakeNotificationsRepo{}
	cal := &fakeCalendar{}
	machine := newTestMachine(t, repo, &fakePaymentsRepo{}, notificationsRepo, cal)

	event := succeededEvent(orderID)
	event.Type = enums.PaymentEventRefunded

	if err := machine.Apply(context.Background(), event); err != nil {
		t.Fatalf("apply refund: %v", err)
	}
	if len(repo.casCalls) != 1 || repo.casCalls[0].NewStatus != enums.IntentionStatusRefunded {
		t.Fatalf("expected transition to refunded, got %+v", repo.casCalls)
	}
	if len(notificationsRepo.enqueued) != 1 || notificationsRepo.enqueued[0].Type != enums.NotificationTypeRefundConfirmation {
		t.Fatalf("expected refund confirmation notification")
	}
	if len(cal.scheduled) != 0 {
		t.Fatalf("refund must not schedule a mass")
	}
}

func TestMachineApply_OrderNotFound(t *testing.T) {
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.MassIntention, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	machine := newTestMachine(t, repo, &fakePaymentsRepo{}, &fakeNotificationsRepo{}, nil)

	err := machine.Apply(context.Background(), succeededEvent(uuid.New()))
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMachineApply_LostRaceRetriesOnce(t *testing.T) {
	orderID := uuid.New()
	finds := 0
	repo := &fakeRepository{}
	repo.findFn = func(ctx context.Context, id uuid.UUID) (*models.MassIntention, error) {
		finds++
		intention := pendingIntention(orderID)
		if finds > 1 {
			// Concurrent writer already moved the row to payment_failed;
			// payment_failed -> paid is still a legal edge.
			intention.Status = enums.IntentionStatusPaymentFailed
		}
		return intention, nil
	}
	repo.casFn = func(ctx context.Context, params StatusUpdateParams) (bool, error) {
		return len(repo.casCalls) > 1, nil
	}
	notificationsRepo := &fakeNotificationsRepo{}
	machine := newTestMachine(t, repo, &fakePaymentsRepo{}, notificationsRepo, nil)

	if err := machine.Apply(context.Background(), succeededEvent(orderID)); err != nil {
		t.Fatalf("apply after lost race: %v", err)
	}
	if len(repo.casCalls) != 2 {
		t.Fatalf("expected exactly one retry, got %d attempts", len(repo.casCalls))
	}
	if repo.casCalls[1].ExpectedStatus != enums.IntentionStatusPaymentFailed {
		t.Fatalf("retry should target the reloaded status, got %s", repo.casCalls[1].ExpectedStatus)
	}
	if len(notificationsRepo.enqueued) != 1 {
		t.Fatalf("expected one notification after retry, got %d", len(notificationsRepo.enqueued))
	}
}

func TestMachineApply_ConcurrentReplayAfterLostRace(t *testing.T) {
	orderID := uuid.New()
	finds := 0
	repo := &fakeRepository{}
	repo.findFn = func(ctx context.Context, id uuid.UUID) (*models.MassIntention, error) {
		finds++
		intention := pendingIntention(orderID)
		if finds > 1 {
			intention.Status = enums.IntentionStatusPaid
		}
		return intention, nil
	}
	repo.casFn = func(ctx context.Context, params StatusUpdateParams) (bool, error) {
		return false, nil
	}
	paymentsRepo := &fakePaymentsRepo{}
	notificationsRepo := &fakeNotificationsRepo{}
	machine := newTestMachine(t, repo, paymentsRepo, notificationsRepo, nil)

	if err := machine.Apply(context.Background(), succeededEvent(orderID)); err != nil {
		t.Fatalf("expected no-op when the same event landed concurrently, got %v", err)
	}
	if len(paymentsRepo.upserts) != 1 {
		t.Fatalf("mirror refresh still expected, got %d upserts", len(paymentsRepo.upserts))
	}
	if len(notificationsRepo.enqueued) != 0 {
		t.Fatalf("no notification expected on concurrent replay")
	}
}

func TestMachineApply_InvalidEventRejected(t *testing.T) {
	machine := newTestMachine(t, &fakeRepository{}, &fakePaymentsRepo{}, &fakeNotificationsRepo{}, nil)

	err := machine.Apply(context.Background(), events.PaymentEvent{Type: "unknown"})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMachineApply_EnqueueFailureAbortsTransaction(t *testing.T) {
	orderID := uuid.New()
	intention := pendingIntention(orderID)
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.MassIntention, error) {
			return intention, nil
		},
	}
	notificationsRepo := &fakeNotificationsRepo{
		enqueueFn: func(ctx context.Context, notification *models.Notification) (bool, error) {
			return false, errors.New("insert failed")
		},
	}
	cal := &fakeCalendar{}
	machine := newTestMachine(t, repo, &fakePaymentsRepo{}, notificationsRepo, cal)

	err := machine.Apply(context.Background(), succeededEvent(orderID))
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(cal.scheduled) != 0 {
		t.Fatalf("calendar must not fire when the transaction fails")
	}
}
