package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation outcomes.
const (
	OutcomeGenerated = "generated"
	OutcomeFailed    = "failed"
)

// Metrics holds Prometheus collectors for content management.
type Metrics struct {
	Generations *prometheus.CounterVec
	SEOScores   prometheus.Histogram
}

// New registers content collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Generations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arq_content_generations_total",
			Help: "AI content drafts requested, by type and outcome",
		}, []string{"type", "outcome"}),
		SEOScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "arq_content_seo_score",
			Help:    "SEO scores of analysed drafts",
			Buckets: []float64{20, 40, 60, 80, 90, 100},
		}),
	}
}

func (m *Metrics) ObserveGeneration(contentType, outcome string) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(contentType, outcome).Inc()
}

func (m *Metrics) ObserveSEOScore(score int) {
	if m == nil {
		return
	}
	m.SEOScores.Observe(float64(score))
}
