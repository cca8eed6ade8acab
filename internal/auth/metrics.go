package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registrations prometheus.Counter
	logins        *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Name:      "registrations_total",
			Help:      "Users registered and awaiting approval.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Name:      "logins_total",
			Help:      "Login attempts by realm and outcome.",
		}, []string{"realm", "result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Name:      "user_status_transitions_total",
			Help:      "User status transitions.",
		}, []string{"from", "to"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Name:      "authorization_rejections_total",
			Help:      "Requests rejected by the authorization gate.",
		}, []string{"realm", "reason"}),
	}

	for _, c := range []prometheus.Collector{m.registrations, m.logins, m.transitions, m.rejections} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) registered() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

func (m *Metrics) login(realm, result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(realm, result).Inc()
}

func (m *Metrics) transition(from, to UserStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) rejected(realm, reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(realm, reason).Inc()
}
