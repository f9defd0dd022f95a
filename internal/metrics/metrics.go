// Package metrics collects Prometheus counters for authentication
// outcomes. A nil *Metrics is valid and records nothing, so callers do
// not need to guard every increment behind a feature flag.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	registry *prometheus.Registry

	registrations  *prometheus.CounterVec
	logins         *prometheus.CounterVec
	logouts        prometheus.Counter
	resetRequests  *prometheus.CounterVec
	resetCompleted *prometheus.CounterVec
	gateDecisions  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "registrations_total",
			Help:      "Account registration attempts by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "logouts_total",
			Help:      "Sessions destroyed via logout.",
		}),
		resetRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "password_reset_requests_total",
			Help:      "Password reset token requests by outcome.",
		}, []string{"outcome"}),
		resetCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "password_resets_total",
			Help:      "Password reset completions by outcome.",
		}, []string{"outcome"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "gate_decisions_total",
			Help:      "Request gate decisions by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.registrations,
		m.logins,
		m.logouts,
		m.resetRequests,
		m.resetCompleted,
		m.gateDecisions,
	)

	return m
}

// Registry exposes the private registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Logout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

func (m *Metrics) ResetRequested(outcome string) {
	if m == nil {
		return
	}
	m.resetRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ResetCompleted(outcome string) {
	if m == nil {
		return
	}
	m.resetCompleted.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GateDecision(result string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(result).Inc()
}
