package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	Triggers *prometheus.CounterVec
	Steps    *prometheus.CounterVec
	Finished *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Triggers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ussdpilot_triggers_total",
				Help: "Inbound trigger messages by outcome",
			},
			[]string{"result"},
		),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ussdpilot_steps_total",
				Help: "Step evaluations by mode, step and outcome",
			},
			[]string{"mode", "step", "outcome"},
		),
		Finished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ussdpilot_sessions_finished_total",
				Help: "Sessions that reached DONE, by reason",
			},
			[]string{"mode", "reason"},
		),
	}
	m.registry.MustRegister(m.Triggers, m.Steps, m.Finished)
	return m
}

// Registry exposes the registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record every event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTrigger: func(_ context.Context, e *domain.TriggerEvent) {
			result := "accepted"
			if !e.Accepted {
				result = e.Reason
			}
			m.Triggers.WithLabelValues(result).Inc()
		},
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			outcome := "advanced"
			if !e.Advanced {
				outcome = "no_target"
			}
			m.Steps.WithLabelValues(string(e.Mode), string(e.StepID), outcome).Inc()
		},
		OnFinish: func(_ context.Context, e *domain.FinishEvent) {
			m.Finished.WithLabelValues(string(e.Mode), string(e.Reason)).Inc()
		},
	}
}
