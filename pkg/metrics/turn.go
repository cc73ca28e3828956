package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TurnMetrics records metadata for simulation turn runs.
type TurnMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	events   *prometheus.CounterVec
}

// NewTurnMetrics registers the turn metrics on the provided registerer. A nil
// registerer yields a no-op collector, which keeps tests and one-shot tools
// from having to wire Prometheus.
func NewTurnMetrics(reg prometheus.Registerer) *TurnMetrics {
	if reg == nil {
		return &TurnMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "turn_duration_seconds",
		Help:    "Duration of simulation turns in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "turn_success",
		Help: "Successful turn executions.",
	}, []string{"stage"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "turn_failure",
		Help: "Failed turn executions.",
	}, []string{"stage"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "market_events_triggered",
		Help: "Market events triggered, labelled by event type.",
	}, []string{"event_type"})
	reg.MustRegister(duration, success, failure, events)
	return &TurnMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		events:   events,
	}
}

// ObserveDuration records the duration for the named stage.
func (m *TurnMetrics) ObserveDuration(stage string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(stage)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named stage.
func (m *TurnMetrics) IncSuccess(stage string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(stage)).Inc()
}

// IncFailure increments the failure counter for the named stage.
func (m *TurnMetrics) IncFailure(stage string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(stage)).Inc()
}

// IncEvent increments the triggered-event counter for the given event type.
func (m *TurnMetrics) IncEvent(eventType string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
