package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type storeMetrics struct {
	activeSessions      prometheus.Gauge
	sessionLoadDuration prometheus.Histogram
	sessionSaveDuration prometheus.Histogram
	catalogListDuration prometheus.Histogram
	peekTotal           *prometheus.CounterVec
	cleanupDeletedTotal prometheus.Counter
}

var (
	metricsOnce sync.Once
	metricsInst *storeMetrics
)

func getMetrics() *storeMetrics {
	metricsOnce.Do(func() {
		m := &storeMetrics{
			activeSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "session_store_active_sessions",
					Help: "Current session count across all workdirs.",
				},
			),
			sessionLoadDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "session_store_load_duration_seconds",
					Help:    "Full-transcript load duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			sessionSaveDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "session_store_save_duration_seconds",
					Help:    "Append duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			catalogListDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "session_store_list_duration_seconds",
					Help:    "Catalog listing duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			peekTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "session_store_peek_total",
					Help: "Total record peeks by kind (first, last).",
				},
				[]string{"kind"},
			),
			cleanupDeletedTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "session_store_cleanup_deleted_total",
					Help: "Total session files deleted by expiry cleanup.",
				},
			),
		}

		prometheus.MustRegister(
			m.activeSessions,
			m.sessionLoadDuration,
			m.sessionSaveDuration,
			m.catalogListDuration,
			m.peekTotal,
			m.cleanupDeletedTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// MetricsHandler returns an http.Handler exposing the store's metrics.
func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func SetActiveSessions(count int) {
	getMetrics().activeSessions.Set(float64(count))
}

func RecordSessionLoad(duration time.Duration) {
	getMetrics().sessionLoadDuration.Observe(duration.Seconds())
}

func RecordSessionSave(duration time.Duration) {
	getMetrics().sessionSaveDuration.Observe(duration.Seconds())
}

func RecordCatalogList(duration time.Duration) {
	getMetrics().catalogListDuration.Observe(duration.Seconds())
}

func RecordPeek(kind string) {
	getMetrics().peekTotal.WithLabelValues(kind).Inc()
}

func RecordCleanupDeleted(count int) {
	getMetrics().cleanupDeletedTotal.Add(float64(count))
}
