package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oremusapp/oremus-backend/api/responses"
	"github.com/oremusapp/oremus-backend/api/validators"
	"github.com/oremusapp/oremus-backend/internal/intentions"
	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
	"github.com/oremusapp/oremus-backend/pkg/logger"
)

type createIntentionRequest struct {
	UserID       string `json:"user_id" validate:"required,uuid4"`
	ParishID     string `json:"parish_id" validate:"required,uuid4"`
	IntentionFor string `json:"intention_for" validate:"required,min=3,max=500"`
	MassDate     string `json:"mass_date" validate:"required"`
	MassType     string `json:"mass_type" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
}

type intentionResponse struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	PaymentID     *string    `json:"payment_id,omitempty"`
	PaymentStatus *string    `json:"payment_status,omitempty"`
	IntentionFor  string     `json:"intention_for"`
	MassDate      time.Time  `json:"mass_date"`
	MassType      string     `json:"mass_type"`
	AmountCents   int        `json:"amount_cents"`
	Currency      string     `json:"currency"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toIntentionResponse(intention *models.MassIntention) intentionResponse {
	resp := intentionResponse{
		ID:           intention.ID.String(),
		Status:       string(intention.Status),
		PaymentID:    intention.PaymentID,
		IntentionFor: intention.IntentionFor,
		MassDate:     intention.MassDate,
		MassType:     string(intention.MassType),
		AmountCents:  intention.AmountCents,
		Currency:     string(intention.Currency),
		CreatedAt:    intention.CreatedAt,
	}
	if intention.PaymentStatus != nil {
		status := string(*intention.PaymentStatus)
		resp.PaymentStatus = &status
	}
	return resp
}

// CreateIntention opens the order lifecycle: the intention lands in
// pending_payment and waits for the payment webhook.
func CreateIntention(svc intentions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createIntentionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		massDate, err := time.Parse(time.RFC3339, req.MassDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mass date"))
			return
		}
		massType, err := enums.ParseMassType(req.MassType)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mass type"))
			return
		}

		intention, err := svc.Create(ctx, intentions.CreateParams{
			UserID:       uuid.MustParse(req.UserID),
			ParishID:     uuid.MustParse(req.ParishID),
			IntentionFor: req.IntentionFor,
			MassDate:     massDate,
			MassType:     massType,
			Email:        req.Email,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toIntentionResponse(intention))
	}
}

// GetIntention returns the requestor view of one order: current status plus
// the denormalized payment state.
func GetIntention(svc intentions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "intentionID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid intention id"))
			return
		}

		intention, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, toIntentionResponse(intention))
	}
}
