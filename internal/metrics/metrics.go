// Package metrics defines Prometheus collectors for hostwatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hostwatch"

// Check cycle metrics.
var (
	CheckCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "check_cycles_total",
		Help:      "Total number of check cycles run, by provider.",
	}, []string{"provider"})

	CheckFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "check_failures_total",
		Help:      "Total number of failed check cycles, by provider.",
	}, []string{"provider"})

	ChangesDetectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "changes_detected_total",
		Help:      "Total number of cycles whose availability set differed from the stored fingerprint.",
	}, []string{"provider"})

	CheckCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "check_cycle_duration_seconds",
		Help:      "Duration of one check cycle in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Notification metrics.
var (
	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of notifications delivered, by notifier.",
	}, []string{"notifier"})

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of notification delivery failures, by notifier.",
	}, []string{"notifier"})
)
