package permission

import (
	"testing"

	"github.com/gtriggiano/hierauthz/pkg/rule"
)

func TestFromRule(t *testing.T) {
	tests := []struct {
		name string
		r    rule.Rule
		want Permission
	}{
		{"empty tuple grants nothing", rule.Tuple(), 0},
		{"single operation", rule.Tuple(rule.Str("read")), Read},
		{"multiple operations", rule.Tuple(rule.Str("create"), rule.Str("read")), Create | Read},
		{"all is shorthand for every bit", rule.Tuple(rule.Str("all")), All},
		{"all short-circuits even alongside an unknown name", rule.Tuple(rule.Str("bogus"), rule.Str("all")), All},
		{"unknown operation name collapses to zero", rule.Tuple(rule.Str("bogus")), 0},
		{"non-string element collapses to zero", rule.Tuple(rule.IntVal(1)), 0},
		{"non-tuple value grants nothing", rule.Str("read"), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FromRule(tc.r); got != tc.want {
				t.Errorf("FromRule(%s) = %05b, want %05b", tc.r, got, tc.want)
			}
		})
	}
}

func TestAllowedFor(t *testing.T) {
	p := Create | Read
	if !OpCreate.AllowedFor(p) {
		t.Error("expected create to be allowed")
	}
	if !OpRead.AllowedFor(p) {
		t.Error("expected read to be allowed")
	}
	if OpDelete.AllowedFor(p) {
		t.Error("expected delete to be denied")
	}
}

func TestAllGrantsEveryOperation(t *testing.T) {
	for _, op := range []Operation{OpCreate, OpRead, OpUpdate, OpDelete, OpList} {
		if !op.AllowedFor(All) {
			t.Errorf("expected %s to be allowed under All", op)
		}
	}
}

func TestParseOperation(t *testing.T) {
	for _, valid := range []string{"create", "read", "update", "delete", "list"} {
		if op, ok := ParseOperation(valid); !ok || string(op) != valid {
			t.Errorf("ParseOperation(%q) = %v, %v", valid, op, ok)
		}
	}
	if _, ok := ParseOperation("destroy"); ok {
		t.Error("expected an unknown operation name to be rejected")
	}
}
