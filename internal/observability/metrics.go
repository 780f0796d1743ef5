package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	ObservationsEmitted prometheus.Counter
	RunsTotal           *prometheus.CounterVec // labels: outcome={success,partial,failure}
	PipelineRunning     prometheus.Gauge

	// Per-source read metrics.
	RecordsRead    *prometheus.CounterVec   // labels: source={series_json,ranking_html,station_api}
	SourceFailures *prometheus.CounterVec   // labels: source
	ReaderDuration *prometheus.HistogramVec // labels: source

	// Normalization and resolution metrics.
	Exclusions    *prometheus.CounterVec // labels: reason
	ResolverCache *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ObservationsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tenki_etl",
			Name:      "observations_emitted_total",
			Help:      "Total observations written to the normalized table.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenki_etl",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tenki_etl",
			Name:      "pipeline_running",
			Help:      "1 while a run is active, 0 otherwise.",
		}),
		RecordsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenki_etl",
			Name:      "records_read_total",
			Help:      "Raw records read per source.",
		}, []string{"source"}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenki_etl",
			Name:      "source_failures_total",
			Help:      "Source reads that failed entirely.",
		}, []string{"source"}),
		ReaderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tenki_etl",
			Name:      "reader_duration_seconds",
			Help:      "Duration of a complete source read.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		Exclusions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenki_etl",
			Name:      "exclusions_total",
			Help:      "Records excluded during normalization, by reason.",
		}, []string{"reason"}),
		ResolverCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenki_etl",
			Name:      "resolver_cache_total",
			Help:      "Nearest-station cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.ObservationsEmitted,
		m.RunsTotal,
		m.PipelineRunning,
		m.RecordsRead,
		m.SourceFailures,
		m.ReaderDuration,
		m.Exclusions,
		m.ResolverCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ObservationsEmitted: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tenki_etl", Name: "observations_emitted_total"}),
		RunsTotal:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "tenki_etl", Name: "runs_total"}, []string{"outcome"}),
		PipelineRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "tenki_etl", Name: "pipeline_running"}),
		RecordsRead:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "tenki_etl", Name: "records_read_total"}, []string{"source"}),
		SourceFailures:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "tenki_etl", Name: "source_failures_total"}, []string{"source"}),
		ReaderDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "tenki_etl", Name: "reader_duration_seconds"}, []string{"source"}),
		Exclusions:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "tenki_etl", Name: "exclusions_total"}, []string{"reason"}),
		ResolverCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "tenki_etl", Name: "resolver_cache_total"}, []string{"result"}),
	}
}
