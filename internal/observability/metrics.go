package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// export pipeline.
type Metrics struct {
	JobsCompleted prometheus.Counter
	JobsFailed    prometheus.Counter
	BatchRunning  prometheus.Gauge

	FetchDuration  prometheus.Histogram
	ExportDuration prometheus.Histogram
	JobDuration    prometheus.Histogram

	// Test-point sampling metrics.
	TestPointsWritten prometheus.Counter
	SamplesSkipped    prometheus.Counter

	// Catalog client metrics.
	CatalogRequests *prometheus.CounterVec // labels: outcome={success,error}
	CatalogCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "jobs_completed_total",
			Help:      "Total export jobs that finished successfully.",
		}),
		JobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "jobs_failed_total",
			Help:      "Total export jobs that failed.",
		}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_etl",
			Name:      "batch_running",
			Help:      "1 while a batch of export jobs is in progress.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_etl",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of catalog fetches.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ExportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_etl",
			Name:      "export_duration_seconds",
			Help:      "Duration of NetCDF writes.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_etl",
			Name:      "job_duration_seconds",
			Help:      "Duration of a complete fetch-aggregate-export-sample job.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		TestPointsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "test_points_written_total",
			Help:      "Total validation rows written to test-point CSVs.",
		}),
		SamplesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "samples_skipped_total",
			Help:      "Sampling runs skipped because a bounding box excluded all grid points.",
		}),
		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "catalog_requests_total",
			Help:      "Catalog API requests by outcome.",
		}, []string{"outcome"}),
		CatalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "catalog_cache_total",
			Help:      "Catalog cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.JobsCompleted,
		m.JobsFailed,
		m.BatchRunning,
		m.FetchDuration,
		m.ExportDuration,
		m.JobDuration,
		m.TestPointsWritten,
		m.SamplesSkipped,
		m.CatalogRequests,
		m.CatalogCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		JobsCompleted:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_etl", Name: "jobs_completed_total"}),
		JobsFailed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_etl", Name: "jobs_failed_total"}),
		BatchRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "climate_etl", Name: "batch_running"}),
		FetchDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_etl", Name: "fetch_duration_seconds"}),
		ExportDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_etl", Name: "export_duration_seconds"}),
		JobDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_etl", Name: "job_duration_seconds"}),
		TestPointsWritten: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_etl", Name: "test_points_written_total"}),
		SamplesSkipped:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_etl", Name: "samples_skipped_total"}),
		CatalogRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climate_etl", Name: "catalog_requests_total"}, []string{"outcome"}),
		CatalogCache:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climate_etl", Name: "catalog_cache_total"}, []string{"result"}),
	}
}
