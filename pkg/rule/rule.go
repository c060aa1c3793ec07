// Package rule implements the tiny S-expression policy language used to
// annotate resources in a hierarchy: parsing, the evaluation semantics, and
// the error model for both phases.
package rule

import "fmt"

// Kind identifies the head token of a call-form Tuple. It only ever appears
// as the first element of a Tuple.
type Kind string

const (
	KindIf   Kind = "if"
	KindEq   Kind = "eq"
	KindAnd  Kind = "and"
	KindOr   Kind = "or"
	KindIn   Kind = "in"
	KindList Kind = "list"
)

// Type distinguishes the variants of Rule so callers can switch without a
// type assertion on every access.
type Type int

const (
	// TypeStr is a string literal, or an attribute reference when the
	// string begins with '$'.
	TypeStr Type = iota
	TypeBool
	TypeInt
	TypeFloat
	// TypeOp is an operator head-token; only valid as Tuple.Children[0].
	TypeOp
	TypeTuple
)

// Rule is a tagged value that is both an AST node (as produced by Parse) and
// a runtime value (as produced by Eval). See Type for the variant tag.
type Rule struct {
	Type Type

	Str   string
	Bool  bool
	Int   int32
	Float float32
	Op    Kind

	// Children holds a Tuple's elements. For a call form, Children[0] is
	// always TypeOp; for a data tuple (the result of evaluating a "list"
	// form) no element is TypeOp.
	Children []Rule
}

// Str builds a string literal. A leading '$' marks an attribute reference.
func Str(s string) Rule { return Rule{Type: TypeStr, Str: s} }

// BoolVal builds a boolean literal.
func BoolVal(b bool) Rule { return Rule{Type: TypeBool, Bool: b} }

// IntVal builds an integer literal.
func IntVal(i int32) Rule { return Rule{Type: TypeInt, Int: i} }

// FloatVal builds a float literal.
func FloatVal(f float32) Rule { return Rule{Type: TypeFloat, Float: f} }

// OpVal builds an operator head-token.
func OpVal(k Kind) Rule { return Rule{Type: TypeOp, Op: k} }

// Tuple builds a tuple from its children.
func Tuple(children ...Rule) Rule { return Rule{Type: TypeTuple, Children: children} }

// IsAttributeReference reports whether a TypeStr rule is a "$name" reference.
func (r Rule) IsAttributeReference() bool {
	return r.Type == TypeStr && len(r.Str) > 0 && r.Str[0] == '$'
}

// AttributeName returns the bare name of a "$name" reference.
func (r Rule) AttributeName() string {
	if !r.IsAttributeReference() {
		return ""
	}
	return r.Str[1:]
}

// sameVariant reports whether two evaluated (scalar) rules share a type,
// which is required before they may be compared for equality.
func sameVariant(a, b Rule) bool {
	return a.Type == b.Type && a.Type != TypeOp
}

// scalarEqual compares two same-variant scalar rules for equality. Tuples
// are never considered scalars here; callers must check variants first.
func scalarEqual(a, b Rule) bool {
	switch a.Type {
	case TypeStr:
		return a.Str == b.Str
	case TypeBool:
		return a.Bool == b.Bool
	case TypeInt:
		return a.Int == b.Int
	case TypeFloat:
		return a.Float == b.Float
	default:
		return false
	}
}

// String renders a Rule for diagnostics. It is not a serialization format.
func (r Rule) String() string {
	switch r.Type {
	case TypeStr:
		return r.Str
	case TypeBool:
		return fmt.Sprintf("%t", r.Bool)
	case TypeInt:
		return fmt.Sprintf("%d", r.Int)
	case TypeFloat:
		return fmt.Sprintf("%g", r.Float)
	case TypeOp:
		return string(r.Op)
	case TypeTuple:
		out := "("
		for i, c := range r.Children {
			if i > 0 {
				out += " "
			}
			out += c.String()
		}
		return out + ")"
	default:
		return "<invalid>"
	}
}
