package notifications

import (
	"fmt"

	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	"github.com/oremusapp/oremus-backend/pkg/mailer"
)

// composeMessage renders the email for one notification row. The title is
// authored at schedule time; the body is assembled from the payload.
func composeMessage(notification *models.Notification, recipient *models.User) mailer.Message {
	msg := mailer.Message{
		ToEmail: recipient.Email,
		ToName:  recipient.Name,
		Subject: notification.Title,
	}

	intentionFor := payloadString(notification, "intention_for")
	massDate := payloadString(notification, "mass_date")
	amount := payloadString(notification, "amount")
	parish := payloadString(notification, "parish")

	switch notification.Type {
	case enums.NotificationTypePaymentConfirmation:
		msg.PlainText = fmt.Sprintf(
			"Thank you. Your payment of %s for the Mass intention %q has been received.\nThe Mass is planned for %s.",
			amount, intentionFor, massDate)
	case enums.NotificationTypePaymentFailed:
		msg.PlainText = fmt.Sprintf(
			"Your payment for the Mass intention %q could not be completed.\nPlease try again or choose another payment method.",
			intentionFor)
	case enums.NotificationTypeRefundConfirmation:
		msg.PlainText = fmt.Sprintf(
			"Your payment of %s for the Mass intention %q has been refunded.",
			amount, intentionFor)
	case enums.NotificationTypeIntentionReminder:
		msg.PlainText = fmt.Sprintf(
			"A reminder: the Mass for the intention %q will be celebrated on %s at %s.",
			intentionFor, massDate, parish)
	case enums.NotificationTypeWebhookFailureAlert:
		msg.PlainText = fmt.Sprintf(
			"A payment event could not be processed.\nDetails: %s",
			payloadString(notification, "error"))
	default:
		msg.PlainText = payloadString(notification, "body")
		if msg.PlainText == "" {
			msg.PlainText = notification.Title
		}
	}
	return msg
}

func payloadString(notification *models.Notification, key string) string {
	if notification.Payload == nil {
		return ""
	}
	value, ok := notification.Payload[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
