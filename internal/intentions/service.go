package intentions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
)

// CreateParams is the validated submission payload for a new intention.
type CreateParams struct {
	UserID       uuid.UUID
	ParishID     uuid.UUID
	IntentionFor string
	MassDate     time.Time
	MassType     enums.MassType
	Email        string
}

// Service exposes the intention submission surface. Status never moves here;
// only the state machine writes it.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.MassIntention, error)
	Get(ctx context.Context, id uuid.UUID) (*models.MassIntention, error)
}

type service struct {
	repo Repository
}

// NewService wires the intentions dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "intentions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.MassIntention, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if params.ParishID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parish id required")
	}
	if params.IntentionFor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "intention text required")
	}
	if params.MassDate.Before(time.Now().UTC()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mass date must be in the future")
	}
	if !params.MassType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid mass type")
	}
	if params.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	intention := &models.MassIntention{
		ParishID:     params.ParishID,
		UserID:       params.UserID,
		IntentionFor: params.IntentionFor,
		MassDate:     params.MassDate,
		MassType:     params.MassType,
		Status:       enums.IntentionStatusPendingPayment,
		Email:        params.Email,
		AmountCents:  params.MassType.PriceCents(),
		Currency:     enums.CurrencyPLN,
	}
	if err := s.repo.Create(ctx, intention); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create intention")
	}
	return intention, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.MassIntention, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "intention id required")
	}
	intention, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "intention not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load intention")
	}
	return intention, nil
}
