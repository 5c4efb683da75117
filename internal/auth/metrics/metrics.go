package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "invalid_request"
)

// Metrics holds Prometheus collectors for the admin session authority.
type Metrics struct {
	Logins            *prometheus.CounterVec
	Logouts           prometheus.Counter
	GatewayRejections *prometheus.CounterVec
	SessionsIssued    prometheus.Counter
}

// New registers auth collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arq_admin_logins_total",
			Help: "Admin login attempts by outcome",
		}, []string{"outcome"}),
		Logouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "arq_admin_logouts_total",
			Help: "Admin logouts",
		}),
		GatewayRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arq_admin_gateway_rejections_total",
			Help: "Admin API requests rejected by the session gateway, by reason",
		}, []string{"reason"}),
		SessionsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "arq_admin_sessions_issued_total",
			Help: "Admin session tokens issued",
		}),
	}
}

func (m *Metrics) IncrementLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.SessionsIssued.Inc()
	}
}

func (m *Metrics) IncrementLogout() {
	if m == nil {
		return
	}
	m.Logouts.Inc()
}

// ObserveGatewayRejection matches the admin gateway's OnReject hook.
func (m *Metrics) ObserveGatewayRejection(reason string) {
	if m == nil {
		return
	}
	m.GatewayRejections.WithLabelValues(reason).Inc()
}
