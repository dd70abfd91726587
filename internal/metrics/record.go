package metrics

import "strconv"

// NotificationAdded records a notification entering the history.
func NotificationAdded(kind string, urgent bool) {
	NotificationsAdded.WithLabelValues(kind, strconv.FormatBool(urgent)).Inc()
}

// PersistFailed records a swallowed storage write failure.
func PersistFailed(key string) {
	PersistFailures.WithLabelValues(key).Inc()
}

// ActionDenied records a quota rejection.
func ActionDenied(action, tier string) {
	ActionsDenied.WithLabelValues(action, tier).Inc()
}

// PaymentSucceeded records a successful charge.
func PaymentSucceeded(tier string) {
	Payments.WithLabelValues(tier, "succeeded").Inc()
}

// PaymentFailed records a declined or errored charge.
func PaymentFailed(tier string) {
	Payments.WithLabelValues(tier, "failed").Inc()
}
