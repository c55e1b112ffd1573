package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/storyloom/pkg/domain"
)

// Metrics records completion calls, dialogue turns and artifact revisions.
type Metrics struct {
	completions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	turns       *prometheus.CounterVec
	artifacts   prometheus.Counter
	gatherer    prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg.
// reg may also be a prometheus.Gatherer, in which case Handler serves it.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyloom_completions_total",
				Help: "Completion calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storyloom_completion_duration_seconds",
				Help:    "Latency of completion calls",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyloom_dialogue_turns_total",
				Help: "Clarification turns appended, by kind",
			},
			[]string{"kind"},
		),
		artifacts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "storyloom_artifacts_total",
				Help: "Stories generated or improved",
			},
		),
		gatherer: prometheus.DefaultGatherer,
	}
	reg.MustRegister(m.completions, m.duration, m.turns, m.artifacts)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCompletionReturn: func(_ context.Context, e *domain.CompletionEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.completions.WithLabelValues(e.Operation, outcome).Inc()
			m.duration.WithLabelValues(e.Operation).Observe(e.Duration.Seconds())
		},
		OnTurnAppended: func(_ context.Context, e *domain.TurnEvent) {
			m.turns.WithLabelValues(string(e.Turn.Kind)).Inc()
		},
		OnArtifactReplaced: func(_ context.Context, _ *domain.ArtifactEvent) {
			m.artifacts.Inc()
		},
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
