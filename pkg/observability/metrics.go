package observability

import (
	"context"

	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records engine requests as prometheus series.
type Metrics struct {
	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tesoro_commands_total",
				Help: "Total number of engine commands by predicate and outcome status",
			},
			[]string{"verb", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tesoro_command_duration_seconds",
				Help:    "Time spent waiting for engine replies",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"verb"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tesoro_commands_in_flight",
			Help: "Engine commands sent and not yet answered",
		}),
	}

	for _, c := range []prometheus.Collector{m.commands, m.duration, m.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSend: func(_ context.Context, _ *domain.CommandEvent) {
			m.inFlight.Inc()
		},
		OnReply: func(_ context.Context, e *domain.CommandEvent) {
			m.inFlight.Dec()
			verb := e.Verb
			if verb == "" {
				verb = "unknown"
			}
			m.commands.WithLabelValues(verb, string(e.Status)).Inc()
			m.duration.WithLabelValues(verb).Observe(e.Elapsed.Seconds())
		},
	}
}
