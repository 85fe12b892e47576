package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNilMetricsMethodsDoNotPanic(t *testing.T) {
	var m *Metrics
	m.SetRosterSize(3)
	m.CountSent("MSG")
	m.CountReceived("HLO")
	m.CountMalformed()
}

func TestSetRosterSize(t *testing.T) {
	m := New("room")
	m.SetRosterSize(5)

	out := &dto.Metric{}
	if err := m.RosterSize.Write(out); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := out.GetGauge().GetValue(); got != 5 {
		t.Errorf("RosterSize = %v, want 5", got)
	}
}

func TestMustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("room")
	m.MustRegister(reg)

	m.CountSent("HLO")
	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(metricFamilies) == 0 {
		t.Error("expected at least one registered metric family")
	}
}
