// Package observability exposes Prometheus metrics for the
// reservation engine.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the engine and reaper.
type Metrics struct {
	ReserveTotal     *prometheus.CounterVec
	CommitTotal      *prometheus.CounterVec
	ReleaseTotal     *prometheus.CounterVec
	ReaperSwept      *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
}

// NewMetrics registers and returns the collector set.
func NewMetrics() *Metrics {
	return &Metrics{
		ReserveTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_reserve_total",
				Help: "Total reserve operations by outcome",
			},
			[]string{"status"}, // ok, insufficient, conflict, bad_request, unavailable, internal
		),

		CommitTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_commit_total",
				Help: "Total commit operations by outcome",
			},
			[]string{"status"}, // ok, conflict, not_found, bad_request, unavailable, internal
		),

		ReleaseTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_release_total",
				Help: "Total release operations by reason",
			},
			[]string{"reason"}, // manual, expired
		),

		ReaperSwept: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_reaper_swept_total",
				Help: "Total holds released by the reaper",
			},
			[]string{"sku"},
		),

		OperationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reservation_operation_duration_seconds",
				Help:    "Duration of reservation engine operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Handler returns the HTTP handler that serves /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// RecordReserve records the outcome of a reserve call.
func (m *Metrics) RecordReserve(status string) {
	m.ReserveTotal.WithLabelValues(status).Inc()
}

// RecordCommit records the outcome of a commit call.
func (m *Metrics) RecordCommit(status string) {
	m.CommitTotal.WithLabelValues(status).Inc()
}

// RecordRelease records a release, tagged by reason.
func (m *Metrics) RecordRelease(reason string) {
	m.ReleaseTotal.WithLabelValues(reason).Inc()
}

// RecordReaperSweep records one hold released by the reaper for a SKU.
func (m *Metrics) RecordReaperSweep(sku string) {
	m.ReaperSwept.WithLabelValues(sku).Inc()
}
