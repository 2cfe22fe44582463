// Package observability builds the process's structured logger and its
// Prometheus metrics registry (§10.1, §11): a local single-process
// tool has no CloudWatch to push to, so metrics are exposed for local
// scraping instead of recorded against a cloud API.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
)

// NewLogger builds the process's *zap.Logger. The "debug" level uses the
// development console encoder; every other level string uses the
// production JSON encoder, matching the teacher's environment switch.
func NewLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch level {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	return cfg.Build()
}

// Metrics holds the Prometheus collectors for ingest, search, sleep and
// store counts (§4.6, §4.8, §4.9, §4.10). Only ObserveSearch has a caller
// (the CLI search command); the ingest, sleep and store collectors are
// registered but nothing updates them.
type Metrics struct {
	registry *prometheus.Registry

	IngestTotal      prometheus.Counter
	IngestDuplicates prometheus.Counter
	IngestFailures   *prometheus.CounterVec

	SearchTotal       prometheus.Counter
	SearchZeroResults prometheus.Counter
	SearchDegraded    *prometheus.CounterVec
	SearchPhaseLatency *prometheus.HistogramVec

	SleepRuns    *prometheus.CounterVec
	SleepDuration *prometheus.HistogramVec

	StoreNodeCount prometheus.Gauge
	StoreEdgeCount prometheus.Gauge
}

// NewMetrics constructs and registers every collector under namespace
// (the teacher's CloudWatch "brain2" namespace becomes "hippograph").
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		IngestTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ingest_total", Help: "Total add() calls.",
		}),
		IngestDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ingest_duplicates_total", Help: "add() calls blocked by near-duplicate detection.",
		}),
		IngestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ingest_failures_total", Help: "add() calls that returned an error, by detail.",
		}, []string{"detail"}),
		SearchTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "search_total", Help: "Total search() calls.",
		}),
		SearchZeroResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "search_zero_results_total", Help: "search() calls that returned no results.",
		}),
		SearchDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "search_degraded_total", Help: "search() calls that degraded, by reason.",
		}, []string{"reason"}),
		SearchPhaseLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "search_phase_duration_seconds", Help: "Per-phase retrieval latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
		SleepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sleep_runs_total", Help: "Completed sleep cycles, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		SleepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "sleep_duration_seconds", Help: "Sleep cycle wall-clock duration, by mode.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300},
		}, []string{"mode"}),
		StoreNodeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "store_node_count", Help: "Current node count.",
		}),
		StoreEdgeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "store_edge_count", Help: "Current edge count.",
		}),
	}

	registry.MustRegister(
		m.IngestTotal, m.IngestDuplicates, m.IngestFailures,
		m.SearchTotal, m.SearchZeroResults, m.SearchDegraded, m.SearchPhaseLatency,
		m.SleepRuns, m.SleepDuration,
		m.StoreNodeCount, m.StoreEdgeCount,
	)
	return m
}

// Registry exposes the collector for an HTTP /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveSearch records one search()'s phase durations and outcome.
func (m *Metrics) ObserveSearch(durations entities.PhaseDurations, resultCount int, degraded bool, reasons []string) {
	m.SearchTotal.Inc()
	if resultCount == 0 {
		m.SearchZeroResults.Inc()
	}
	phases := map[string]time.Duration{
		"embedding": durations.Embedding,
		"ann":       durations.ANN,
		"spreading": durations.Spreading,
		"bm25":      durations.BM25,
		"temporal":  durations.Temporal,
		"rerank":    durations.Rerank,
		"total":     durations.Total,
	}
	for phase, d := range phases {
		m.SearchPhaseLatency.WithLabelValues(phase).Observe(d.Seconds())
	}
	if degraded {
		for _, reason := range reasons {
			m.SearchDegraded.WithLabelValues(reason).Inc()
		}
	}
}

// ObserveSleep records one sleep cycle's mode, outcome, and duration.
func (m *Metrics) ObserveSleep(mode string, succeeded bool, duration time.Duration) {
	outcome := "ok"
	if !succeeded {
		outcome = "failed"
	}
	m.SleepRuns.WithLabelValues(mode, outcome).Inc()
	m.SleepDuration.WithLabelValues(mode).Observe(duration.Seconds())
}
