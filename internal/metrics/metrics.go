package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dispatch"

var (
	batchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduling",
		Name:      "batch_requests_total",
		Help:      "Batch scheduling requests broken down by operation and outcome.",
	}, []string{"op", "result"})

	batchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "scheduling",
		Name:      "batch_size",
		Help:      "Number of elements per batch scheduling request.",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
	}, []string{"op"})

	batchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "scheduling",
		Name:      "batch_latency_seconds",
		Help:      "Latency of batch scheduling requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	writeConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduling",
		Name:      "write_conflicts_total",
		Help:      "Writes rejected because of a stale lock token or a taken slot.",
	}, []string{"kind"})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})

	presenceSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "presence",
		Name:      "sessions",
		Help:      "Connected presence sessions.",
	})

	presenceEditing = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "presence",
		Name:      "editing",
		Help:      "Sessions that currently have an assignment open.",
	})
)

// Result labels for RecordBatch.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

func RecordBatch(op, result string, size int, latency time.Duration) {
	batchRequests.WithLabelValues(op, result).Inc()
	batchSize.WithLabelValues(op).Observe(float64(size))
	batchLatency.WithLabelValues(op).Observe(latency.Seconds())
}

// RecordWriteConflict counts a rejected write; kind is "stale" or "duplicate".
func RecordWriteConflict(kind string) {
	writeConflicts.WithLabelValues(kind).Inc()
}

func RecordRateLimited() {
	rateLimited.Inc()
}

func SetPresenceSessions(n int) {
	presenceSessions.Set(float64(n))
}

func SetPresenceEditing(n int) {
	presenceEditing.Set(float64(n))
}
