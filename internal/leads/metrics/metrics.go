package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeStored    = "stored"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Metrics holds Prometheus collectors for lead capture.
type Metrics struct {
	Submissions          *prometheus.CounterVec
	AnalysisDuration     prometheus.Histogram
	AnalysisFailures     prometheus.Counter
	NotificationFailures *prometheus.CounterVec
}

// New registers lead collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arq_lead_submissions_total",
			Help: "Lead form submissions by kind and outcome",
		}, []string{"kind", "outcome"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "arq_lead_analysis_duration_seconds",
			Help:    "Duration of AI lead analysis calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8},
		}),
		AnalysisFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "arq_lead_analysis_failures_total",
			Help: "AI lead analyses that failed or timed out",
		}),
		NotificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arq_lead_notification_failures_total",
			Help: "Lead emails that could not be sent, by message",
		}, []string{"message"}),
	}
}

func (m *Metrics) ObserveSubmission(kind, outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveAnalysis(seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.AnalysisDuration.Observe(seconds)
	if failed {
		m.AnalysisFailures.Inc()
	}
}

func (m *Metrics) ObserveNotificationFailure(message string) {
	if m == nil {
		return
	}
	m.NotificationFailures.WithLabelValues(message).Inc()
}
