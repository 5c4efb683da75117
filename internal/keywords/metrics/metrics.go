package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup sources.
const (
	SourceCache = "cache"
	SourceAPI   = "api"
	SourceError = "error"
)

// Metrics holds Prometheus collectors for keyword research.
type Metrics struct {
	Lookups           *prometheus.CounterVec
	CacheWriteFailure prometheus.Counter
}

// New registers keyword collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arq_keyword_lookups_total",
			Help: "Keyword research lookups by source",
		}, []string{"source"}),
		CacheWriteFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "arq_keyword_cache_write_failures_total",
			Help: "Keyword results that could not be cached",
		}),
	}
}

func (m *Metrics) ObserveLookup(source string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveCacheWriteFailure() {
	if m == nil {
		return
	}
	m.CacheWriteFailure.Inc()
}
