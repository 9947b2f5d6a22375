package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/oremusapp/oremus-backend/api/responses"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
	"github.com/oremusapp/oremus-backend/pkg/logger"
	"github.com/oremusapp/oremus-backend/pkg/types"
)

// Stripe caps event payloads well below this; anything larger is not a
// webhook delivery.
const maxPayloadBytes = 64 << 10

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

// StripePaymentWebhook receives payment lifecycle events from the gateway.
// Response contract: bad signature is the caller's fault (400, nothing
// happened); transient failures are ours (5xx, provider redelivers); every
// other outcome acks 200 so the provider stops retrying. handleTimeout bounds
// the store work per delivery; hitting it classifies as a transient failure.
func StripePaymentWebhook(svc StripeWebhookService, signingSecret string, handleTimeout time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxPayloadBytes)
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignature, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, signingSecret)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeSignature, err, "verify signature"))
			return
		}

		handleCtx := ctx
		if handleTimeout > 0 {
			var cancel context.CancelFunc
			handleCtx, cancel = context.WithTimeout(ctx, handleTimeout)
			defer cancel()
		}

		if err := svc.HandleEvent(handleCtx, &event); err != nil {
			typed := pkgerrors.As(err)
			if typed == nil {
				typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "handle event")
			}
			meta := pkgerrors.MetadataFor(typed.Code())
			if logg != nil {
				logg.Error(ctx, "stripe event handling failed", err)
			}
			responses.WriteJSON(w, meta.HTTPStatus, types.WebhookAck{Received: false})
			return
		}

		responses.WriteJSON(w, http.StatusOK, types.WebhookAck{Received: true})
	}
}
