package notifications

import (
	"strings"
	"testing"

	"github.com/oremusapp/oremus-backend/pkg/db/models"
	"github.com/oremusapp/oremus-backend/pkg/enums"
	"github.com/oremusapp/oremus-backend/pkg/types"
)

func TestComposeMessage_PaymentConfirmation(t *testing.T) {
	notification := &models.Notification{
		Type:  enums.NotificationTypePaymentConfirmation,
		Title: "Payment received",
		Payload: types.JSONMap{
			"intention_for": "Anna Kowalska",
			"mass_date":     "2026-09-15",
			"amount":        "50.00 PLN",
		},
	}
	recipient := &models.User{Email: "anna@example.com", Name: "Anna"}

	msg := composeMessage(notification, recipient)
	if msg.ToEmail != "anna@example.com" || msg.Subject != "Payment received" {
		t.Fatalf("unexpected envelope: %+v", msg)
	}
	for _, fragment := range []string{"50.00 PLN", "Anna Kowalska", "2026-09-15"} {
		if !strings.Contains(msg.PlainText, fragment) {
			t.Fatalf("body missing %q: %s", fragment, msg.PlainText)
		}
	}
}

func TestComposeMessage_FailureAlertCarriesError(t *testing.T) {
	notification := &models.Notification{
		Type:    enums.NotificationTypeWebhookFailureAlert,
		Title:   "Payment webhook processing failed",
		Payload: types.JSONMap{"error": "DEPENDENCY_ERROR: upsert payment"},
	}
	msg := composeMessage(notification, &models.User{Email: "ops@oremus.app"})
	if !strings.Contains(msg.PlainText, "upsert payment") {
		t.Fatalf("alert body missing error detail: %s", msg.PlainText)
	}
}

func TestComposeMessage_UnknownTypeFallsBackToTitle(t *testing.T) {
	notification := &models.Notification{
		Type:  enums.NotificationTypeNewAnnouncement,
		Title: "Parish announcement",
	}
	msg := composeMessage(notification, &models.User{Email: "user@example.com"})
	if msg.PlainText != "Parish announcement" {
		t.Fatalf("expected title fallback, got %q", msg.PlainText)
	}
}
