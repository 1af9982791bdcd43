// internal/infra/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the instruments for the scheduling and dispatch engine.
type Metrics struct {
	PassesRun     prometheus.Counter
	PassesSkipped prometheus.Counter
	PassDuration  prometheus.Histogram

	NotificationsDelivered prometheus.Counter
	NotificationsFailed    prometheus.Counter
	NotificationsSkipped   prometheus.Counter
}

// New registers the engine metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PassesRun: factory.NewCounter(prometheus.CounterOpts{
			Name: "expiry_reminder_passes_run_total",
			Help: "Number of scheduling passes executed.",
		}),
		PassesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "expiry_reminder_passes_skipped_total",
			Help: "Number of ticks skipped because a pass was still running.",
		}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "expiry_reminder_pass_duration_seconds",
			Help:    "Duration of scheduling passes.",
			Buckets: prometheus.DefBuckets,
		}),
		NotificationsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "expiry_reminder_notifications_delivered_total",
			Help: "Number of notifications delivered successfully.",
		}),
		NotificationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "expiry_reminder_notifications_failed_total",
			Help: "Number of notification deliveries that failed.",
		}),
		NotificationsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "expiry_reminder_notifications_skipped_total",
			Help: "Number of due records skipped (e.g. empty recipients).",
		}),
	}
}

// Handler exposes the registry over HTTP for scraping.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
