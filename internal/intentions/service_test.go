package intentions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
)

func validCreateParams() CreateParams {
	return CreateParams{
		UserID:       uuid.New(),
		ParishID:     uuid.New(),
		IntentionFor: "Jan Nowak",
		MassDate:     time.Now().UTC().Add(14 * 24 * time.Hour),
		MassType:     enums.MassTypeRequiem,
		Email:        "jan@example.com",
	}
}

func TestServiceCreate_DefaultsAndPricing(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("service setup: %v", err)
	}

	intention, err := svc.Create(context.Background(), validCreateParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if intention.Status != enums.IntentionStatusPendingPayment {
		t.Fatalf("new intention must start pending_payment, got %s", intention.Status)
	}
	if intention.AmountCents != enums.MassTypeRequiem.PriceCents() {
		t.Fatalf("amount should come from the mass type price list, got %d", intention.AmountCents)
	}
	if intention.Currency != enums.CurrencyPLN {
		t.Fatalf("default currency should be PLN, got %s", intention.Currency)
	}
}

func TestServiceCreate_Validation(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("service setup: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*CreateParams)
	}{
		{"missing user", func(p *CreateParams) { p.UserID = uuid.Nil }},
		{"missing parish", func(p *CreateParams) { p.ParishID = uuid.Nil }},
		{"missing intention text", func(p *CreateParams) { p.IntentionFor = "" }},
		{"past mass date", func(p *CreateParams) { p.MassDate = time.Now().UTC().Add(-time.Hour) }},
		{"bad mass type", func(p *CreateParams) { p.MassType = "novena" }},
		{"missing email", func(p *CreateParams) { p.Email = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validCreateParams()
			tc.mutate(&params)
			_, err := svc.Create(context.Background(), params)
			if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestServiceGet_NotFound(t *testing.T) {
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.MassIntention, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("service setup: %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.New())
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
