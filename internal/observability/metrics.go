// Package observability exposes Prometheus instrumentation for the
// onboarding service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the onboarding workflow collectors. A nil *Metrics is
// safe to use; every method no-ops.
type Metrics struct {
	runsStarted   prometheus.Counter
	runsCompleted prometheus.Counter
	runsFailed    *prometheus.CounterVec
	fallbackUsed  prometheus.Counter
	runDuration   prometheus.Histogram
}

// NewMetrics builds the collectors and registers them with the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_runs_started_total",
			Help: "Number of onboarding workflows started.",
		}),
		runsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_runs_completed_total",
			Help: "Number of onboarding workflows that completed successfully.",
		}),
		runsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_runs_failed_total",
			Help: "Number of onboarding workflows that failed, by stage.",
		}, []string{"stage"}),
		fallbackUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_fallback_artifacts_total",
			Help: "Number of runs that completed with locally generated fallback artifacts.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "onboarding_run_duration_seconds",
			Help:    "Wall-clock duration of completed onboarding workflows.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
	}

	reg.MustRegister(m.runsStarted, m.runsCompleted, m.runsFailed, m.fallbackUsed, m.runDuration)
	return m
}

// RunStarted records a workflow start.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsStarted.Inc()
}

// RunCompleted records a successful workflow and its duration.
func (m *Metrics) RunCompleted(duration time.Duration, usedFallback bool) {
	if m == nil {
		return
	}
	m.runsCompleted.Inc()
	m.runDuration.Observe(duration.Seconds())
	if usedFallback {
		m.fallbackUsed.Inc()
	}
}

// RunFailed records a fatal workflow failure for a stage.
func (m *Metrics) RunFailed(stage string) {
	if m == nil {
		return
	}
	m.runsFailed.WithLabelValues(stage).Inc()
}
