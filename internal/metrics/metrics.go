package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Committed vs rolled-back mutations.
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_mutations_total",
			Help: "Project mutations by operation and outcome",
		},
		[]string{"op", "outcome"}, // op: add, delete; outcome: committed, rolled_back, rejected
	)

	StoreCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_store_call_duration_seconds",
			Help:    "Latency of snapshot store calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"backend", "op", "status"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_uploads_total",
			Help: "Image uploads by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	CollectionSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_collection_size",
			Help: "Number of projects currently held in memory",
		},
	)
)

func RecordMutation(op, outcome string) {
	MutationsTotal.WithLabelValues(op, outcome).Inc()
}

func RecordStoreCall(backend, op string, err error, duration time.Duration) {
	StoreCallDuration.WithLabelValues(backend, op, statusLabel(err)).Observe(duration.Seconds())
}

func RecordUpload(mode string, err error) {
	UploadsTotal.WithLabelValues(mode, statusLabel(err)).Inc()
}

func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func SetCollectionSize(n int) {
	CollectionSize.Set(float64(n))
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
