// Package metrics exposes Prometheus counters for notification delivery and
// entitlement decisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hypeflow"

// Notification metrics
var (
	NotificationsAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_added_total",
			Help:      "Total number of notifications added to the history",
		},
		[]string{"type", "urgent"},
	)

	NotificationsTruncated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_truncated_total",
			Help:      "Notifications dropped from the tail of the bounded history",
		},
	)

	SubscriberPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_subscriber_panics_total",
			Help:      "Subscriber callbacks that panicked during fan-out",
		},
	)

	PersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Storage writes that failed and were swallowed",
		},
		[]string{"key"},
	)
)

// Entitlement metrics
var (
	UsageIncrements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_increments_total",
			Help:      "Daily usage counter increments by feature",
		},
		[]string{"feature"},
	)

	ActionsDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_denied_total",
			Help:      "Actions rejected by the quota gate",
		},
		[]string{"action", "tier"},
	)

	Payments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Subscription payment attempts by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
