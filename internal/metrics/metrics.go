// Package metrics holds the Prometheus collectors for imports and the
// HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/englishaidol/aidol/internal/csvimport"
)

// Import outcomes.
const (
	OutcomeOK       = "ok"
	OutcomePartial  = "partial"
	OutcomeRejected = "rejected"
)

// Metrics bundles every collector the service exports. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Imports         *prometheus.CounterVec
	ImportRows      *prometheus.CounterVec
	LLMEnrichments  *prometheus.CounterVec
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a private registry
// together with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Imports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aidol_imports_total",
				Help: "Total number of CSV imports by outcome",
			},
			[]string{"skill_type", "outcome"},
		),
		ImportRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aidol_import_rows_total",
				Help: "Total number of imported CSV rows by result",
			},
			[]string{"skill_type", "result"},
		),
		LLMEnrichments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aidol_llm_enrichments_total",
				Help: "Synthetic distractors processed by AI enrichment",
			},
			[]string{"result"},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
	}
	m.registry.MustRegister(
		m.Imports,
		m.ImportRows,
		m.LLMEnrichments,
		m.RequestCounter,
		m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome classifies a normalization result.
func Outcome(out *csvimport.Output) string {
	switch {
	case out == nil || len(out.Insert) == 0:
		return OutcomeRejected
	case len(out.Errors) > 0:
		return OutcomePartial
	default:
		return OutcomeOK
	}
}

// ObserveImport records one import and its row counts.
func (m *Metrics) ObserveImport(skill csvimport.SkillType, out *csvimport.Output) {
	if m == nil {
		return
	}
	st := string(skill)
	m.Imports.WithLabelValues(st, Outcome(out)).Inc()
	if out == nil {
		return
	}
	s := out.Summary
	m.ImportRows.WithLabelValues(st, "valid").Add(float64(s.RowsValid))
	m.ImportRows.WithLabelValues(st, "warning").Add(float64(s.RowsWithWarnings))
	m.ImportRows.WithLabelValues(st, "error").Add(float64(s.RowsWithErrors))
}

// ObserveEnrichment records placeholder outcomes of one enrichment pass.
func (m *Metrics) ObserveEnrichment(replaced, kept, failedRows int) {
	if m == nil {
		return
	}
	m.LLMEnrichments.WithLabelValues("replaced").Add(float64(replaced))
	m.LLMEnrichments.WithLabelValues("kept").Add(float64(kept))
	m.LLMEnrichments.WithLabelValues("failed").Add(float64(failedRows))
}
