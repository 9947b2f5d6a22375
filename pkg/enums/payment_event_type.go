package enums

import "fmt"

// PaymentEventType is the canonical event vocabulary produced by the webhook
// adapter after provider payloads have been mapped.
type PaymentEventType string

const (
	PaymentEventSucceeded PaymentEventType = "payment_succeeded"
	PaymentEventFailed    PaymentEventType = "payment_failed"
	PaymentEventCanceled  PaymentEventType = "payment_canceled"
	PaymentEventRefunded  PaymentEventType = "charge_refunded"
)

var validPaymentEventTypes = []PaymentEventType{
	PaymentEventSucceeded,
	PaymentEventFailed,
	PaymentEventCanceled,
	PaymentEventRefunded,
}

// String implements fmt.Stringer.
func (e PaymentEventType) String() string {
	return string(e)
}

// IsValid reports whether the value matches the canonical event vocabulary.
func (e PaymentEventType) IsValid() bool {
	for _, candidate := range validPaymentEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParsePaymentEventType converts raw input into a PaymentEventType.
func ParsePaymentEventType(value string) (PaymentEventType, error) {
	for _, candidate := range validPaymentEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment event type %q", value)
}
