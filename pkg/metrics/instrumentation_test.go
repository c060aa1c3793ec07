package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDecisionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	inst := NewInstrumentation(reg)

	inst.ObserveDecision("read", ResultAllow, 10*time.Millisecond)
	inst.ObserveDecision("create", ResultDeny, 20*time.Millisecond)
	inst.ObserveDecision("update", ResultError, 5*time.Millisecond)

	if v := testutil.ToFloat64(inst.decisionsTotal.WithLabelValues("read", ResultAllow)); v != 1 {
		t.Fatalf("expected 1 allow decision, got %v", v)
	}
	if v := testutil.ToFloat64(inst.decisionsTotal.WithLabelValues("create", ResultDeny)); v != 1 {
		t.Fatalf("expected 1 deny decision, got %v", v)
	}
	if v := testutil.ToFloat64(inst.decisionsTotal.WithLabelValues("update", ResultError)); v != 1 {
		t.Fatalf("expected 1 error decision, got %v", v)
	}

	if c := testutil.CollectAndCount(inst.decisionDuration); c != 3 {
		t.Fatalf("expected decisionDuration to contain three label combinations, got %d", c)
	}
}

func TestInFlightGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	inst := NewInstrumentation(reg)

	inst.InFlight("read", 1)
	if v := testutil.ToFloat64(inst.inFlight.WithLabelValues("read")); v != 1 {
		t.Fatalf("expected inFlight gauge at 1, got %v", v)
	}
	inst.InFlight("read", -1)
	if v := testutil.ToFloat64(inst.inFlight.WithLabelValues("read")); v != 0 {
		t.Fatalf("expected inFlight gauge back to zero, got %v", v)
	}
}

func TestInFlightIgnoresZeroDelta(t *testing.T) {
	reg := prometheus.NewRegistry()
	inst := NewInstrumentation(reg)

	inst.InFlight("read", 0)
	if v := testutil.ToFloat64(inst.inFlight.WithLabelValues("read")); v != 0 {
		t.Fatalf("expected inFlight gauge untouched by a zero delta, got %v", v)
	}
}

func TestSetHierarchyNodes(t *testing.T) {
	reg := prometheus.NewRegistry()
	inst := NewInstrumentation(reg)

	inst.SetHierarchyNodes(42)
	if v := testutil.ToFloat64(inst.hierarchyNodes); v != 42 {
		t.Fatalf("expected hierarchyNodes gauge at 42, got %v", v)
	}
}

func TestNilInstrumentationIsSafe(t *testing.T) {
	var inst *Instrumentation
	inst.InFlight("read", 1)
	inst.ObserveDecision("read", ResultAllow, time.Millisecond)
	inst.SetHierarchyNodes(1)
}
