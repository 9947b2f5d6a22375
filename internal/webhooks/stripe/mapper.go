package stripewebhook

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/oremusapp/oremus-backend/internal/events"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	pkgerrors "github.com/oremusapp/oremus-backend/pkg/errors"
)

const (
	metadataOrderID   = "order_id"
	metadataPaymentID = "payment_id"
)

// ErrIgnoredEvent marks provider event types outside the payment lifecycle;
// the boundary acks them without side effects.
var ErrIgnoredEvent = pkgerrors.New(pkgerrors.CodeStateConflict, "ignored event type")

// MapEvent translates a verified provider event into the canonical payment
// event. It is pure: no I/O, no clock.
func MapEvent(event *stripe.Event) (events.PaymentEvent, error) {
	if event == nil || event.Data == nil {
		return events.PaymentEvent{}, pkgerrors.New(pkgerrors.CodeValidation, "event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionExpired:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return events.PaymentEvent{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
		}
		paymentID := session.Metadata[metadataPaymentID]
		if paymentID == "" && session.PaymentIntent != nil {
			paymentID = session.PaymentIntent.ID
		}
		if paymentID == "" {
			// Expired sessions may never have produced a payment intent.
			paymentID = session.ID
		}
		orderID, err := orderIDFromMetadata(session.Metadata)
		if err != nil {
			return events.PaymentEvent{}, err
		}
		eventType := enums.PaymentEventSucceeded
		if event.Type == stripe.EventTypeCheckoutSessionExpired {
			eventType = enums.PaymentEventCanceled
		}
		return events.PaymentEvent{
			Type:        eventType,
			EventID:     event.ID,
			OrderID:     orderID,
			PaymentID:   paymentID,
			AmountCents: int(session.AmountTotal),
			Currency:    currencyFrom(string(session.Currency)),
		}, nil

	case stripe.EventTypePaymentIntentSucceeded,
		stripe.EventTypePaymentIntentPaymentFailed,
		stripe.EventTypePaymentIntentCanceled:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return events.PaymentEvent{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
		}
		orderID, err := orderIDFromMetadata(intent.Metadata)
		if err != nil {
			return events.PaymentEvent{}, err
		}
		mapped := events.PaymentEvent{
			EventID:     event.ID,
			OrderID:     orderID,
			PaymentID:   intent.ID,
			AmountCents: int(intent.Amount),
			Currency:    currencyFrom(string(intent.Currency)),
		}
		switch event.Type {
		case stripe.EventTypePaymentIntentSucceeded:
			mapped.Type = enums.PaymentEventSucceeded
		case stripe.EventTypePaymentIntentCanceled:
			mapped.Type = enums.PaymentEventCanceled
		default:
			mapped.Type = enums.PaymentEventFailed
			if intent.LastPaymentError != nil {
				mapped.FailureMsg = intent.LastPaymentError.Msg
			}
		}
		return mapped, nil

	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return events.PaymentEvent{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge")
		}
		paymentID := charge.Metadata[metadataPaymentID]
		if paymentID == "" && charge.PaymentIntent != nil {
			paymentID = charge.PaymentIntent.ID
		}
		orderID, err := orderIDFromMetadata(charge.Metadata)
		if err != nil {
			return events.PaymentEvent{}, err
		}
		return events.PaymentEvent{
			Type:        enums.PaymentEventRefunded,
			EventID:     event.ID,
			OrderID:     orderID,
			PaymentID:   paymentID,
			AmountCents: int(charge.AmountRefunded),
			Currency:    currencyFrom(string(charge.Currency)),
		}, nil

	default:
		return events.PaymentEvent{}, ErrIgnoredEvent
	}
}

func orderIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	raw, ok := metadata[metadataOrderID]
	if !ok || raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "order id missing from event metadata")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "invalid order id in event metadata")
	}
	return orderID, nil
}

func currencyFrom(raw string) enums.Currency {
	currency, err := enums.ParseCurrency(raw)
	if err != nil {
		return enums.CurrencyPLN
	}
	return currency
}
