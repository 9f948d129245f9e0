// Package observability provides Prometheus metrics and the ops HTTP endpoint
// serving them.
package observability

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records
// nothing, so the endpoint can stay disabled without guarding every call site.
type Metrics struct {
	// Fetch metrics
	FetchesTotal *prometheus.CounterVec

	// Download metrics
	DownloadsTotal   *prometheus.CounterVec
	DownloadsActive  prometheus.Gauge
	DownloadBytes    prometheus.Counter
	DownloadDuration prometheus.Histogram
}

// New creates and registers all application metrics.
func New() *Metrics {
	metrics := &Metrics{
		// Fetch metrics
		FetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "velvetdown",
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Total number of format fetch requests by outcome",
		}, []string{"status"}),

		// Download metrics
		DownloadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "velvetdown",
			Subsystem: "download",
			Name:      "sessions_total",
			Help:      "Total number of download sessions by outcome",
		}, []string{"status"}),
		DownloadsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "velvetdown",
			Subsystem: "download",
			Name:      "active",
			Help:      "Number of downloads currently in progress",
		}),
		DownloadBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "velvetdown",
			Subsystem: "download",
			Name:      "bytes_total",
			Help:      "Total bytes of finished files moved to the destination",
		}),
		DownloadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "velvetdown",
			Subsystem: "download",
			Name:      "duration_seconds",
			Help:      "Histogram of download session duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
	}

	return metrics
}

// Handler returns the metrics endpoint handler with the ops chain applied:
// panic recovery, request correlation, debug request logging.
func Handler(log *slog.Logger) http.Handler {
	return Recoverer(log, RequestID(RequestLogger(log, promhttp.Handler())))
}

// RecordFetch increments the fetch counter for the given outcome.
func (m *Metrics) RecordFetch(status string) {
	if m == nil {
		return
	}

	m.FetchesTotal.WithLabelValues(status).Inc()
}

// RecordDownloadStarted marks a download session as active.
func (m *Metrics) RecordDownloadStarted() {
	if m == nil {
		return
	}

	m.DownloadsActive.Inc()
}

// RecordDownloadEnded records a terminal download outcome.
func (m *Metrics) RecordDownloadEnded(status string) {
	if m == nil {
		return
	}

	m.DownloadsTotal.WithLabelValues(status).Inc()
	m.DownloadsActive.Dec()
}

// AddDownloadBytes adds the size of a finished file to the byte counter.
func (m *Metrics) AddDownloadBytes(size int64) {
	if m == nil {
		return
	}

	m.DownloadBytes.Add(float64(size))
}

// DownloadTimer returns a function to record download session duration.
func (m *Metrics) DownloadTimer() func() {
	if m == nil {
		return func() {}
	}

	start := time.Now()

	return func() {
		m.DownloadDuration.Observe(time.Since(start).Seconds())
	}
}
