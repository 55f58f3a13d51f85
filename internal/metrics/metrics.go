// Package metrics exposes Prometheus instrumentation for the scan engine
// and API surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all moonwatch Prometheus collectors.
type Registry struct {
	CycleDuration  prometheus.Histogram
	SignalsIssued  *prometheus.CounterVec
	ScorerErrors   *prometheus.CounterVec
	VotesRecorded  *prometheus.CounterVec
	Outcomes       *prometheus.CounterVec
	ActiveSignals  prometheus.Gauge
	SkippedTickers prometheus.Counter
}

// NewRegistry creates and registers all collectors on a fresh registry.
func NewRegistry() (*Registry, *prometheus.Registry) {
	r := &Registry{
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "moonwatch_cycle_duration_seconds",
			Help:    "Duration of one full scan cycle in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SignalsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moonwatch_signals_issued_total",
			Help: "Signals issued per direction and tier",
		}, []string{"direction", "tier"}),
		ScorerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moonwatch_scorer_errors_total",
			Help: "Category scorer failures per category",
		}, []string{"category"}),
		VotesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moonwatch_votes_recorded_total",
			Help: "Gut votes recorded per vote value",
		}, []string{"vote"}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moonwatch_signal_outcomes_total",
			Help: "Terminal lifecycle outcomes per state",
		}, []string{"outcome"}),
		ActiveSignals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "moonwatch_active_signals",
			Help: "Signals currently in the active book",
		}),
		SkippedTickers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moonwatch_skipped_tickers_total",
			Help: "Tickers skipped in a cycle due to incomplete scores",
		}),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		r.CycleDuration,
		r.SignalsIssued,
		r.ScorerErrors,
		r.VotesRecorded,
		r.Outcomes,
		r.ActiveSignals,
		r.SkippedTickers,
	)

	return r, reg
}
