package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PassMetrics records metadata for reconciliation maintenance passes.
type PassMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	mutated  *prometheus.CounterVec
}

// NewPassMetrics registers the pass metrics on the provided registerer.
func NewPassMetrics(reg prometheus.Registerer) *PassMetrics {
	if reg == nil {
		return &PassMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconcile_pass_duration_seconds",
		Help:    "Duration of reconciliation passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pass"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_pass_success",
		Help: "Successful reconciliation pass executions.",
	}, []string{"pass"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_pass_failure",
		Help: "Failed reconciliation pass executions.",
	}, []string{"pass"})
	mutated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_records_mutated_total",
		Help: "Records mutated or deleted by reconciliation passes.",
	}, []string{"pass"})
	reg.MustRegister(duration, success, failure, mutated)
	return &PassMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		mutated:  mutated,
	}
}

// ObserveDuration records the duration for the named pass.
func (p *PassMetrics) ObserveDuration(pass string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(pass)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named pass.
func (p *PassMetrics) IncSuccess(pass string) {
	if p == nil || p.success == nil {
		return
	}
	p.success.WithLabelValues(normalizeLabel(pass)).Inc()
}

// IncFailure increments the failure counter for the named pass.
func (p *PassMetrics) IncFailure(pass string) {
	if p == nil || p.failure == nil {
		return
	}
	p.failure.WithLabelValues(normalizeLabel(pass)).Inc()
}

// AddMutated adds mutated-record counts for the named pass.
func (p *PassMetrics) AddMutated(pass string, n int) {
	if p == nil || p.mutated == nil || n <= 0 {
		return
	}
	p.mutated.WithLabelValues(normalizeLabel(pass)).Add(float64(n))
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
