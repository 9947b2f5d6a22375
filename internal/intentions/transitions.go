package intentions

import (
	"github.com/oremusapp/oremus-backend/pkg/enums"
)

// transition describes one edge family: the event maps every legal source
// status onto a single target.
type transition struct {
	target  enums.IntentionStatus
	sources []enums.IntentionStatus
}

// transitionTable is the whole state machine. Events absent here
// (or source statuses not listed) are illegal edges and resolve to no-ops.
var transitionTable = map[enums.PaymentEventType]transition{
	enums.PaymentEventSucceeded: {
		target: enums.IntentionStatusPaid,
		sources: []enums.IntentionStatus{
			enums.IntentionStatusPendingPayment,
			enums.IntentionStatusPaymentFailed,
		},
	},
	enums.PaymentEventFailed: {
		target: enums.IntentionStatusPaymentFailed,
		sources: []enums.IntentionStatus{
			enums.IntentionStatusPendingPayment,
		},
	},
	enums.PaymentEventCanceled: {
		target: enums.IntentionStatusCanceled,
		sources: []enums.IntentionStatus{
			enums.IntentionStatusPendingPayment,
			enums.IntentionStatusPaymentFailed,
		},
	},
	enums.PaymentEventRefunded: {
		target: enums.IntentionStatusRefunded,
		sources: []enums.IntentionStatus{
			enums.IntentionStatusPaid,
		},
	},
}

func (t transition) allowsFrom(status enums.IntentionStatus) bool {
	for _, source := range t.sources {
		if source == status {
			return true
		}
	}
	return false
}
