package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotificationMetrics counts dispatcher outcomes by notification type.
type NotificationMetrics struct {
	sent   *prometheus.CounterVec
	failed *prometheus.CounterVec
}

// NewNotificationMetrics registers the dispatcher counters.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Notifications delivered through the mail transport.",
	}, []string{"type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Notifications whose delivery attempt failed.",
	}, []string{"type"})
	reg.MustRegister(sent, failed)
	return &NotificationMetrics{sent: sent, failed: failed}
}

// IncSent increments the sent counter for the given type.
func (n *NotificationMetrics) IncSent(notificationType string) {
	if n == nil || n.sent == nil {
		return
	}
	n.sent.WithLabelValues(normalizeLabel(notificationType)).Inc()
}

// IncFailed increments the failed counter for the given type.
func (n *NotificationMetrics) IncFailed(notificationType string) {
	if n == nil || n.failed == nil {
		return
	}
	n.failed.WithLabelValues(normalizeLabel(notificationType)).Inc()
}
