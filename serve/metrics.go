package serve

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/everydev1618/gochat"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	SessionsActive       prometheus.Gauge
	SessionsTotal        prometheus.Counter
	Events               *prometheus.CounterVec
	ActionFailures       *prometheus.CounterVec
	CollaboratorFailures *prometheus.CounterVec
	Transitions          prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gochat_sessions_active",
			Help: "Conversations currently running.",
		}),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gochat_sessions_total",
			Help: "Conversations started.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gochat_events_total",
			Help: "Engine events by type.",
		}, []string{"type"}),
		ActionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gochat_action_failures_total",
			Help: "Actions that failed and sent the conversation to fallback.",
		}, []string{"kind"}),
		CollaboratorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gochat_collaborator_failures_total",
			Help: "Classifier, reply generator and store failures.",
		}, []string{"collaborator"}),
		Transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gochat_transitions_total",
			Help: "Step transitions.",
		}),
	}
	m.registry.MustRegister(
		m.SessionsActive,
		m.SessionsTotal,
		m.Events,
		m.ActionFailures,
		m.CollaboratorFailures,
		m.Transitions,
		prometheus.NewGoCollector(),
	)
	return m
}

// SessionStarted records a new conversation.
func (m *Metrics) SessionStarted() {
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

// Observe updates the collectors from an engine event.
func (m *Metrics) Observe(ev chat.Event) {
	m.Events.WithLabelValues(string(ev.Type)).Inc()

	switch ev.Type {
	case chat.EventSessionEnded:
		m.SessionsActive.Dec()
	case chat.EventTransition:
		m.Transitions.Inc()
	case chat.EventActionFailed:
		m.ActionFailures.WithLabelValues(ev.Action).Inc()
	case chat.EventCollaboratorFailed:
		m.CollaboratorFailures.WithLabelValues(ev.Target).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
