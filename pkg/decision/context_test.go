package decision

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewRequestContextSeedsOperationAndPath(t *testing.T) {
	rc := NewRequestContext("read", "/widgets/42")
	fields := rc.LogFields()
	if len(fields) != 2 {
		t.Fatalf("expected 2 seed fields, got %d", len(fields))
	}
	if rc.Operation != "read" || rc.Path != "/widgets/42" {
		t.Fatalf("unexpected Operation/Path: %q/%q", rc.Operation, rc.Path)
	}
	if rc.ReceivedAt.IsZero() {
		t.Error("expected ReceivedAt to be set")
	}
}

func TestAddLogFieldsAccumulates(t *testing.T) {
	rc := NewRequestContext("read", "/widgets/42")
	rc.AddLogFields(zap.Bool("allowed", true))
	rc.AddLogFields(zap.String("extra", "value"))

	fields := rc.LogFields()
	if len(fields) != 4 {
		t.Fatalf("expected 4 fields after two additions, got %d", len(fields))
	}
}

func TestAddLogFieldsCannotOverrideSeedFields(t *testing.T) {
	rc := NewRequestContext("read", "/widgets/42")
	rc.AddLogFields(zap.String("operation", "delete"), zap.String("path", "/other"))

	fields := rc.LogFields()
	if len(fields) != 2 {
		t.Fatalf("expected operation/path overrides to be dropped, got %d fields", len(fields))
	}
	for _, f := range fields {
		if f.Key == "operation" && f.String != "read" {
			t.Errorf("operation field was overridden: %q", f.String)
		}
		if f.Key == "path" && f.String != "/widgets/42" {
			t.Errorf("path field was overridden: %q", f.String)
		}
	}
}

func TestLogFieldsReturnsIndependentSnapshot(t *testing.T) {
	rc := NewRequestContext("read", "/widgets/42")
	snapshot := rc.LogFields()
	rc.AddLogFields(zap.Bool("allowed", true))

	if len(snapshot) != 2 {
		t.Fatalf("expected earlier snapshot to be unaffected by later additions, got %d fields", len(snapshot))
	}
}

func TestNilRequestContextMethodsAreSafe(t *testing.T) {
	var rc *RequestContext
	rc.AddLogFields(zap.Bool("allowed", true))
	if fields := rc.LogFields(); fields != nil {
		t.Errorf("expected nil LogFields on a nil RequestContext, got %v", fields)
	}
}
