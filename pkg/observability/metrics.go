package observability

import (
	"context"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clocktower"

// Metrics holds the Prometheus collectors fed by engine hooks.
type Metrics struct {
	Events           *prometheus.CounterVec
	Decisions        *prometheus.CounterVec
	DecisionDuration *prometheus.HistogramVec
	Deaths           *prometheus.CounterVec
	GamesFinished    *prometheus.CounterVec
	GamesActive      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events appended to game logs.",
		}, []string{"type", "visibility"}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Decision provider round-trips by outcome.",
		}, []string{"kind", "outcome"}),
		DecisionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_duration_seconds",
			Help:      "Time spent waiting on the decision provider.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"kind"}),
		Deaths: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deaths_total",
			Help:      "Participant deaths by cause.",
		}, []string{"cause"}),
		GamesFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Finished games by winning team.",
		}, []string{"winner"}),
		GamesActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "games_active",
			Help:      "Games set up and not yet over.",
		}),
	}
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvent:    m.observeEvent,
		OnDecision: m.observeDecision,
	}
}

func (m *Metrics) observeEvent(_ context.Context, evt domain.Event) {
	m.Events.WithLabelValues(string(evt.Type), string(evt.Visibility)).Inc()
	switch evt.Type {
	case domain.EventGameSetup:
		m.GamesActive.Inc()
	case domain.EventDeath:
		m.Deaths.WithLabelValues(string(evt.Cause)).Inc()
	case domain.EventGameOver:
		m.GamesActive.Dec()
		winner := string(evt.Winner)
		if winner == "" {
			winner = "none"
		}
		m.GamesFinished.WithLabelValues(winner).Inc()
	}
}

func (m *Metrics) observeDecision(_ context.Context, evt domain.DecisionEvent) {
	m.Decisions.WithLabelValues(string(evt.Kind), string(evt.Outcome)).Inc()
	m.DecisionDuration.WithLabelValues(string(evt.Kind)).Observe(evt.Duration.Seconds())
}
