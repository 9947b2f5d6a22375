package enums

import "fmt"

// IntentionStatus maps to the intention_status enum in Postgres.
type IntentionStatus string

const (
	IntentionStatusPendingPayment IntentionStatus = "pending_payment"
	IntentionStatusPaid           IntentionStatus = "paid"
	IntentionStatusPaymentFailed  IntentionStatus = "payment_failed"
	IntentionStatusCanceled       IntentionStatus = "canceled"
	IntentionStatusRefunded       IntentionStatus = "refunded"
	IntentionStatusScheduled      IntentionStatus = "scheduled"
	IntentionStatusCompleted      IntentionStatus = "completed"
)

var validIntentionStatuses = []IntentionStatus{
	IntentionStatusPendingPayment,
	IntentionStatusPaid,
	IntentionStatusPaymentFailed,
	IntentionStatusCanceled,
	IntentionStatusRefunded,
	IntentionStatusScheduled,
	IntentionStatusCompleted,
}

// String implements fmt.Stringer.
func (s IntentionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known IntentionStatus.
func (s IntentionStatus) IsValid() bool {
	for _, candidate := range validIntentionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseIntentionStatus converts raw input into an IntentionStatus.
func ParseIntentionStatus(value string) (IntentionStatus, error) {
	for _, candidate := range validIntentionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid intention status %q", value)
}
