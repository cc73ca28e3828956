package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNilRegistererIsNoOp(t *testing.T) {
	m := NewTurnMetrics(nil)
	m.ObserveDuration("turn", time.Second)
	m.IncSuccess("turn")
	m.IncFailure("turn")
	m.IncEvent("RECESSION")

	var nilMetrics *TurnMetrics
	nilMetrics.IncSuccess("turn")
}

func TestRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTurnMetrics(reg)
	m.ObserveDuration("turn", 250*time.Millisecond)
	m.IncSuccess("turn")
	m.IncEvent("ECONOMIC_BOOM")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	names := map[string]bool{}
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	for _, want := range []string{"turn_duration_seconds", "turn_success", "market_events_triggered"} {
		if !names[want] {
			t.Fatalf("expected metric family %q, got %v", want, names)
		}
	}
}
