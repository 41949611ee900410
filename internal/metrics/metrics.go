// Package metrics exposes evaluation counters and timings to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pr_pathways"

// Recorder receives evaluation events.
type Recorder interface {
	ObserveEvaluation(d time.Duration, eligible, ineligible int)
	ObserveProgram(program, status string)
	ObserveDataError(program, criterion string)
	CatalogReloaded(ok bool)
}

// Prometheus is a Recorder backed by Prometheus collectors.
type Prometheus struct {
	evaluations *prometheus.CounterVec
	duration    prometheus.Histogram
	outcomes    *prometheus.CounterVec
	dataErrors  *prometheus.CounterVec
	reloads     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Completed eligibility evaluations.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating one profile against the catalog.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "program_outcomes_total",
			Help:      "Per-program evaluation outcomes.",
		}, []string{"program", "status"}),
		dataErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_data_errors_total",
			Help:      "Criteria that failed because of malformed rule data.",
		}, []string{"program", "criterion"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reloads_total",
			Help:      "Catalog reload attempts by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{p.evaluations, p.duration, p.outcomes, p.dataErrors, p.reloads} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// ObserveEvaluation records one finished evaluation. An evaluation with at
// least one eligible program counts as "matched".
func (p *Prometheus) ObserveEvaluation(d time.Duration, eligible, _ int) {
	outcome := "unmatched"
	if eligible > 0 {
		outcome = "matched"
	}
	p.evaluations.WithLabelValues(outcome).Inc()
	p.duration.Observe(d.Seconds())
}

func (p *Prometheus) ObserveProgram(program, status string) {
	p.outcomes.WithLabelValues(program, status).Inc()
}

func (p *Prometheus) ObserveDataError(program, criterion string) {
	p.dataErrors.WithLabelValues(program, criterion).Inc()
}

func (p *Prometheus) CatalogReloaded(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	p.reloads.WithLabelValues(result).Inc()
}

// Nop discards every event.
type Nop struct{}

func (Nop) ObserveEvaluation(time.Duration, int, int) {}
func (Nop) ObserveProgram(string, string)             {}
func (Nop) ObserveDataError(string, string)           {}
func (Nop) CatalogReloaded(bool)                      {}
