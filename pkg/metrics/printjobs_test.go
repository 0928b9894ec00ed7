package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPrintJobMetricsExportsLifecycleCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrintJobMetrics(reg)
	printerID := "STICKERLANDIA-2026-BOOTH-1"

	m.IncQueued(printerID)
	m.IncQueued(printerID)
	m.AddClaimed(printerID, 2)
	m.IncCompleted(printerID)
	m.IncFailed(printerID)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	expected := map[string]float64{
		"print_jobs_queued":    2,
		"print_jobs_claimed":   2,
		"print_jobs_completed": 1,
		"print_jobs_failed":    1,
	}
	for name, want := range expected {
		got, err := fetchCounterValue(mfs, name, "printer_id", printerID)
		if err != nil {
			t.Fatalf("fetch %s: %v", name, err)
		}
		if got != want {
			t.Fatalf("expected %s=%f, got %f", name, want, got)
		}
	}
}

func TestPrintJobMetricsSkipsEmptyClaims(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrintJobMetrics(reg)
	m.AddClaimed("STICKERLANDIA-2026-BOOTH-1", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if _, err := fetchCounterValue(mfs, "print_jobs_claimed", "printer_id", "STICKERLANDIA-2026-BOOTH-1"); err == nil {
		t.Fatal("expected no claimed series for an empty poll")
	}
}

func TestPrintJobMetricsNilRegistererIsNoop(t *testing.T) {
	m := NewPrintJobMetrics(nil)
	m.IncQueued("STICKERLANDIA-2026-BOOTH-1")
	m.AddClaimed("STICKERLANDIA-2026-BOOTH-1", 3)
	m.IncCompleted("")
	m.IncFailed("")
}
