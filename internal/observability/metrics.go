package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "capacity_audit"

// Metrics holds the Prometheus counters, histograms, and gauges for the audit service.
type Metrics struct {
	DocumentsProcessed prometheus.Counter
	DocumentErrors     *prometheus.CounterVec // labels: reason={unreadable,scoring,publish}
	RecordsExtracted   prometheus.Counter
	RecordsClassified  *prometheus.CounterVec // labels: status
	ModelLoaded        prometheus.Gauge

	ProcessingDuration prometheus.Histogram
	PredictionDuration prometheus.Histogram

	// Upload handler metrics.
	ResultCache      *prometheus.CounterVec // labels: result={hit,miss}
	ResultsPublished prometheus.Counter
}

// NewMetrics creates and registers all audit metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DocumentsProcessed,
		m.DocumentErrors,
		m.RecordsExtracted,
		m.RecordsClassified,
		m.ModelLoaded,
		m.ProcessingDuration,
		m.PredictionDuration,
		m.ResultCache,
		m.ResultsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many instances as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DocumentsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Total documents scored successfully.",
		}),
		DocumentErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_errors_total",
			Help:      "Documents that failed, by reason.",
		}, []string{"reason"}),
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_extracted_total",
			Help:      "Daily records extracted from submitted documents.",
		}),
		RecordsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_classified_total",
			Help:      "Classified records by audit status.",
		}, []string{"status"}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 when a capacity model is loaded, 0 otherwise.",
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_processing_duration_seconds",
			Help:      "Duration of text extraction, scoring and classification for one document.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Duration of a single capacity prediction.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		ResultCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_total",
			Help:      "Upload result cache lookups by result.",
		}, []string{"result"}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Audit reports published to the results topic.",
		}),
	}
}
