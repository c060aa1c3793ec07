package rule

import (
	"errors"
	"reflect"
	"testing"
)

// fakeCtx implements Binding over a plain map for table-driven eval tests.
type fakeCtx map[string]Rule

func (c fakeCtx) Lookup(key string) (Rule, bool) {
	v, ok := c[key]
	return v, ok
}

// TestParse exercises the tokenizer/parser including its tolerant handling
// of a missing outermost closing paren.
func TestParse(t *testing.T) {
	t.Run("scalar priority: integer over float over bool over string", func(t *testing.T) {
		tests := []struct {
			source string
			want   Rule
		}{
			{"42", IntVal(42)},
			{"-7", IntVal(-7)},
			{"3.14", FloatVal(3.14)},
			{"true", BoolVal(true)},
			{"false", BoolVal(false)},
			{"hello", Str("hello")},
			{"$role", Str("$role")},
		}
		for _, tc := range tests {
			got, err := Parse(tc.source)
			if err != nil {
				t.Fatalf("Parse(%q): unexpected error: %v", tc.source, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tc.source, got, tc.want)
			}
		}
	})

	t.Run("call form", func(t *testing.T) {
		got, err := Parse("(list create read)")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := Tuple(OpVal(KindList), Str("create"), Str("read"))
		if got.String() != want.String() {
			t.Errorf("Parse = %s, want %s", got, want)
		}
	})

	t.Run("nested call form", func(t *testing.T) {
		got, err := Parse("(if (eq $role admin) (list all) (list))")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Type != TypeTuple || len(got.Children) != 4 {
			t.Fatalf("expected 4-child if tuple, got %s", got)
		}
		if got.Children[0].Op != KindIf {
			t.Errorf("expected head Op(if), got %v", got.Children[0])
		}
	})

	t.Run("tolerant of missing outermost closing paren", func(t *testing.T) {
		got, err := Parse("(if x y z")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want, err := Parse("(if x y z)")
		if err != nil {
			t.Fatalf("unexpected error parsing control form: %v", err)
		}
		if got.String() != want.String() {
			t.Errorf("Parse(%q) = %s, want %s", "(if x y z", got, want)
		}
	})

	t.Run("whitespace separators include tabs and newlines", func(t *testing.T) {
		got, err := Parse("(list\tcreate\nread)")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.Children) != 3 {
			t.Fatalf("expected 3 children, got %s", got)
		}
	})

	t.Run("empty input fails", func(t *testing.T) {
		_, err := Parse("")
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected ParseError, got %v", err)
		}
	})

	t.Run("unbalanced extra closing paren fails", func(t *testing.T) {
		_, err := Parse("(foo))")
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected ParseError, got %v", err)
		}
	})

	t.Run("multiple top-level atoms fail", func(t *testing.T) {
		_, err := Parse("a b")
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected ParseError, got %v", err)
		}
	})
}

// TestEval covers the per-variant evaluation semantics from spec.md §4.2.
func TestEval(t *testing.T) {
	t.Run("attribute reference resolves from context", func(t *testing.T) {
		r, _ := Parse("$role")
		got, err := Eval(r, fakeCtx{"role": Str("admin")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, Str("admin")) {
			t.Errorf("got %v, want Str(admin)", got)
		}
	})

	t.Run("unbound attribute reference yields empty string, not an error", func(t *testing.T) {
		r, _ := Parse("$missing")
		got, err := Eval(r, fakeCtx{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, Str("")) {
			t.Errorf("got %v, want Str(\"\")", got)
		}
	})

	t.Run("if selects the then-branch when the condition is true", func(t *testing.T) {
		r, _ := Parse("(if (eq $role admin) (list all) (list))")
		got, err := Eval(r, fakeCtx{"role": Str("admin")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := Tuple(Str("all"))
		if got.String() != want.String() {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("if with wrong arity fails", func(t *testing.T) {
		r, _ := Parse("(if x y)")
		_, err := Eval(r, fakeCtx{})
		var invalid *InvalidIf
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidIf, got %v", err)
		}
	})

	t.Run("if condition must be boolean", func(t *testing.T) {
		r, _ := Parse("(if 1 x y)")
		_, err := Eval(r, fakeCtx{})
		var invalid *InvalidIfCondition
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidIfCondition, got %v", err)
		}
	})

	t.Run("if propagates an error raised in an unselected branch", func(t *testing.T) {
		// Both branches are eagerly evaluated, so an error in the
		// "else" branch surfaces even though the condition is true.
		r, _ := Parse("(if true x (eq 1 true))")
		_, err := Eval(r, fakeCtx{})
		var cannotCompare *CannotCompare
		if !errors.As(err, &cannotCompare) {
			t.Fatalf("expected CannotCompare from the unselected branch, got %v", err)
		}
	})

	t.Run("eq compares same-variant scalars", func(t *testing.T) {
		r, _ := Parse("(eq 1 1)")
		got, err := Eval(r, fakeCtx{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, BoolVal(true)) {
			t.Errorf("got %v, want true", got)
		}
	})

	t.Run("eq across variants fails", func(t *testing.T) {
		r, _ := Parse("(eq 1 true)")
		_, err := Eval(r, fakeCtx{})
		var cannotCompare *CannotCompare
		if !errors.As(err, &cannotCompare) {
			t.Fatalf("expected CannotCompare, got %v", err)
		}
	})

	t.Run("and/or are not short-circuited", func(t *testing.T) {
		// Both operands are evaluated even for "or" with a true left
		// operand; an invalid right operand still surfaces an error.
		r, _ := Parse("(or true (eq 1 true))")
		_, err := Eval(r, fakeCtx{})
		var cannotCompare *CannotCompare
		if !errors.As(err, &cannotCompare) {
			t.Fatalf("expected CannotCompare because or evaluates both operands, got %v", err)
		}
	})

	t.Run("and/or require boolean operands", func(t *testing.T) {
		r, _ := Parse("(and 1 true)")
		_, err := Eval(r, fakeCtx{})
		if err == nil {
			t.Fatal("expected an error for a non-boolean operand")
		}
	})

	t.Run("in checks membership by structural equality within variant", func(t *testing.T) {
		r, _ := Parse("(in 2 (list 1 2 3))")
		got, err := Eval(r, fakeCtx{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, BoolVal(true)) {
			t.Errorf("got %v, want true", got)
		}

		r, _ = Parse("(in 5 (list 1 2 3))")
		got, err = Eval(r, fakeCtx{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, BoolVal(false)) {
			t.Errorf("got %v, want false", got)
		}
	})

	t.Run("in requires a tuple right operand", func(t *testing.T) {
		r, _ := Parse("(in 1 2)")
		_, err := Eval(r, fakeCtx{})
		var invalidIn *InvalidIn
		if !errors.As(err, &invalidIn) {
			t.Fatalf("expected InvalidIn, got %v", err)
		}
	})

	t.Run("list builds a data tuple and is the only tuple constructor", func(t *testing.T) {
		r, _ := Parse("(list create read)")
		got, err := Eval(r, fakeCtx{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := Tuple(Str("create"), Str("read"))
		if got.String() != want.String() {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("re-evaluating a data tuple collapses to an empty tuple", func(t *testing.T) {
		evaluated := Tuple(Str("create"), Str("read"))
		got, err := Eval(evaluated, fakeCtx{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.String() != Tuple().String() {
			t.Errorf("got %s, want empty tuple", got)
		}
	})

	t.Run("empty tuple evaluates to itself", func(t *testing.T) {
		got, err := Eval(Tuple(), fakeCtx{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.String() != Tuple().String() {
			t.Errorf("got %s, want empty tuple", got)
		}
	})
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		token string
		want  Rule
	}{
		{"1", IntVal(1)},
		{"1.5", FloatVal(1.5)},
		{"true", BoolVal(true)},
		{"false", BoolVal(false)},
		{"t", Str("t")},
		{"", Str("")},
	}
	for _, tc := range tests {
		if got := ParseScalar(tc.token); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseScalar(%q) = %#v, want %#v", tc.token, got, tc.want)
		}
	}
}

func TestCompareScalars(t *testing.T) {
	t.Run("same variant equal", func(t *testing.T) {
		eq, err := CompareScalars(IntVal(1), IntVal(1))
		if err != nil || !eq {
			t.Fatalf("expected equal, got eq=%v err=%v", eq, err)
		}
	})

	t.Run("same variant unequal", func(t *testing.T) {
		eq, err := CompareScalars(IntVal(1), IntVal(2))
		if err != nil || eq {
			t.Fatalf("expected not equal, got eq=%v err=%v", eq, err)
		}
	})

	t.Run("different variant fails", func(t *testing.T) {
		_, err := CompareScalars(IntVal(1), Str(""))
		var cannotCompare *CannotCompare
		if !errors.As(err, &cannotCompare) {
			t.Fatalf("expected CannotCompare, got %v", err)
		}
	})
}
