package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions            *prometheus.CounterVec
	TrackedWindows       prometheus.Gauge
	SweepRunsTotal       prometheus.Counter
	SweepRemovedTotal    prometheus.Counter
	SweepDurationSeconds prometheus.Histogram
}

// New registers rate limit collectors on reg; nil uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arq_ratelimit_decisions_total",
			Help: "Rate limit decisions by policy class and outcome",
		}, []string{"class", "outcome"}),
		TrackedWindows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arq_ratelimit_tracked_windows",
			Help: "Identifiers currently held by the window store",
		}),
		SweepRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "arq_ratelimit_sweep_runs_total",
			Help: "Total number of expired-window sweeps",
		}),
		SweepRemovedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "arq_ratelimit_sweep_removed_total",
			Help: "Total number of expired windows removed by sweeps",
		}),
		SweepDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "arq_ratelimit_sweep_duration_seconds",
			Help:    "Duration of sweep runs in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
	}
}

func (m *Metrics) ObserveDecision(class string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "rejected"
	}
	m.Decisions.WithLabelValues(class, outcome).Inc()
}

func (m *Metrics) ObserveSweep(removed, remaining int, durationSeconds float64) {
	m.SweepRunsTotal.Inc()
	m.SweepRemovedTotal.Add(float64(removed))
	m.TrackedWindows.Set(float64(remaining))
	m.SweepDurationSeconds.Observe(durationSeconds)
}
