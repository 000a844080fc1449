package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	exchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sipcheck",
			Subsystem: "session",
			Name:      "exchanges_total",
			Help:      "Total request/response exchanges.",
		},
		[]string{"transaction", "outcome"},
	)
	exchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sipcheck",
			Subsystem: "session",
			Name:      "exchange_duration_seconds",
			Help:      "Exchange round-trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"transaction"},
	)
	validationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sipcheck",
			Subsystem: "session",
			Name:      "validation_failures_total",
			Help:      "Transaction builds rejected before any send.",
		},
		[]string{"transaction"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(exchanges, exchangeDuration, validationFailures)
	})
}

func RecordExchange(transaction string, duration time.Duration, err error) {
	RegisterMetrics()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	exchanges.WithLabelValues(transaction, outcome).Inc()
	exchangeDuration.WithLabelValues(transaction).Observe(duration.Seconds())
}

func RecordValidationFailure(transaction string) {
	RegisterMetrics()
	validationFailures.WithLabelValues(transaction).Inc()
}
