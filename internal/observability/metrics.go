package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline and query API.
type Metrics struct {
	EpochsStored   prometheus.Gauge
	IngestRuns     *prometheus.CounterVec // labels: outcome={success,error}
	IngestSkipped  prometheus.Counter
	IngestDuration prometheus.Histogram

	RequestsTotal   *prometheus.CounterVec // labels: route, code
	RequestDuration *prometheus.HistogramVec

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.EpochsStored,
		m.IngestRuns,
		m.IngestSkipped,
		m.IngestDuration,
		m.RequestsTotal,
		m.RequestDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		EpochsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "iss_telemetry",
			Name:      "epochs_stored",
			Help:      "Number of epoch records in the current generation.",
		}),
		IngestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iss_telemetry",
			Name:      "ingest_runs_total",
			Help:      "Ingestion attempts by outcome.",
		}, []string{"outcome"}),
		IngestSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iss_telemetry",
			Name:      "ingest_skipped_records_total",
			Help:      "Malformed feed records dropped during ingestion.",
		}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "iss_telemetry",
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete fetch-parse-store cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iss_telemetry",
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "iss_telemetry",
			Name:      "http_request_duration_seconds",
			Help:      "API request duration by route.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"route"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iss_telemetry",
			Name:      "geocode_requests_total",
			Help:      "Reverse-geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iss_telemetry",
			Name:      "geocode_cache_total",
			Help:      "Reverse-geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "iss_telemetry",
			Name:      "geocode_api_duration_seconds",
			Help:      "Nominatim request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
