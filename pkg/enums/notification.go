package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypePaymentConfirmation NotificationType = "payment_confirmation"
	NotificationTypePaymentFailed       NotificationType = "payment_failed"
	NotificationTypeRefundConfirmation  NotificationType = "refund_confirmation"
	NotificationTypeIntentionReminder   NotificationType = "intention_reminder"
	NotificationTypeCourseEnrollment    NotificationType = "course_enrollment"
	NotificationTypeCourseCompletion    NotificationType = "course_completion"
	NotificationTypeNewAnnouncement     NotificationType = "new_announcement"
	NotificationTypeReportReady         NotificationType = "report_ready"
	NotificationTypeWebhookFailureAlert NotificationType = "webhook_failure_alert"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePaymentConfirmation,
	NotificationTypePaymentFailed,
	NotificationTypeRefundConfirmation,
	NotificationTypeIntentionReminder,
	NotificationTypeCourseEnrollment,
	NotificationTypeCourseCompletion,
	NotificationTypeNewAnnouncement,
	NotificationTypeReportReady,
	NotificationTypeWebhookFailureAlert,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationStatus maps to the notification_status enum in Postgres.
// "processing" is the dispatcher's claim marker; it is never a terminal state.
type NotificationStatus string

const (
	NotificationStatusPending    NotificationStatus = "pending"
	NotificationStatusProcessing NotificationStatus = "processing"
	NotificationStatusSent       NotificationStatus = "sent"
	NotificationStatusFailed     NotificationStatus = "failed"
)

var validNotificationStatuses = []NotificationStatus{
	NotificationStatusPending,
	NotificationStatusProcessing,
	NotificationStatusSent,
	NotificationStatusFailed,
}

// IsValid reports whether the value is a known NotificationStatus.
func (n NotificationStatus) IsValid() bool {
	for _, candidate := range validNotificationStatuses {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationStatus converts raw input into a NotificationStatus.
func ParseNotificationStatus(value string) (NotificationStatus, error) {
	for _, candidate := range validNotificationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification status %q", value)
}
