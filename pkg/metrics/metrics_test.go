package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestManagerCreation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(
		WithPrometheusRegistry(reg),
		WithNamespace("test"),
		WithSubsystem("fcfs"),
	)
	if m == nil {
		t.Fatal("expected manager, got nil")
	}
	if m.namespace != "test" {
		t.Errorf("expected namespace test, got %s", m.namespace)
	}
}

func TestGlobalRecorders(t *testing.T) {
	// All package-level helpers must be callable without panicking.
	RecordAdmissionAttempt("won")
	RecordAdmissionAttempt("lost")
	RecordAdmissionWinner()
	RecordAdmissionLatency(1.5)
	RecordEventSellout()
	RecordEventMaterialized()
	RecordEventReconciled()
	RecordWinnersPersisted(3)
	RecordReconcileFailure()
	RecordStoreLatency(0.2)
	RecordStoreError()
	RecordHTTPRequest("participate", "POST", "200")
	RecordHTTPRequestDuration("participate", "POST", "200", 2.0)
	RecordErrorByComponent("admission", "unavailable")

	if GetRegistry() == nil {
		t.Fatal("expected registry")
	}

	families, err := GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected at least one metric family")
	}
}
