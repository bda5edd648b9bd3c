// Package observability holds service-level Prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	taskCompletedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "taskflow",
		Subsystem: "tasks",
		Name:      "last_completion_timestamp_seconds",
		Help:      "Unix timestamp of the most recent task completion persisted to Postgres.",
	})

	xpAwardedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskflow",
		Subsystem: "gamification",
		Name:      "xp_awarded_total",
		Help:      "Total XP credited across all users.",
	})

	streaksResetCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskflow",
		Subsystem: "gamification",
		Name:      "streaks_reset_total",
		Help:      "Number of streaks zeroed by the nightly decay job.",
	})
)

func init() {
	prometheus.MustRegister(taskCompletedGauge, xpAwardedCounter, streaksResetCounter)
}

// RecordTaskCompleted updates the completion watermark gauge.
func RecordTaskCompleted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	taskCompletedGauge.Set(float64(ts.Unix()))
}

// RecordXPAwarded accumulates credited XP.
func RecordXPAwarded(xp int) {
	if xp > 0 {
		xpAwardedCounter.Add(float64(xp))
	}
}

// RecordStreaksReset accumulates nightly decay resets.
func RecordStreaksReset(count int) {
	if count > 0 {
		streaksResetCounter.Add(float64(count))
	}
}
