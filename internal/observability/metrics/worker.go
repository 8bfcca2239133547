package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics tracks ingestion runs in the worker process.
type WorkerMetrics struct {
	registry *prometheus.Registry

	ingestTotal    *prometheus.CounterVec
	ingestDuration *prometheus.HistogramVec
	recordsIndexed *prometheus.GaugeVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	ingestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "campus",
			Subsystem:   "ingest",
			Name:        "runs_total",
			Help:        "Ingestion runs by corpus and outcome.",
			ConstLabels: constLabels,
		},
		[]string{"corpus", "outcome"},
	)
	ingestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "campus",
			Subsystem:   "ingest",
			Name:        "run_duration_seconds",
			Help:        "Ingestion run duration in seconds.",
			Buckets:     []float64{1, 5, 15, 30, 60, 120, 300, 600},
			ConstLabels: constLabels,
		},
		[]string{"corpus"},
	)
	recordsIndexed := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   "campus",
			Subsystem:   "ingest",
			Name:        "records_indexed",
			Help:        "Records in the most recent successful index build.",
			ConstLabels: constLabels,
		},
		[]string{"corpus"},
	)

	registry.MustRegister(ingestTotal, ingestDuration, recordsIndexed)

	return &WorkerMetrics{
		registry:       registry,
		ingestTotal:    ingestTotal,
		ingestDuration: ingestDuration,
		recordsIndexed: recordsIndexed,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) ObserveRun(corpus string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ingestTotal.WithLabelValues(corpus, outcome).Inc()
	m.ingestDuration.WithLabelValues(corpus).Observe(elapsed.Seconds())
}

func (m *WorkerMetrics) SetRecordsIndexed(corpus string, n int) {
	m.recordsIndexed.WithLabelValues(corpus).Set(float64(n))
}
