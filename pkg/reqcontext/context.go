// Package reqcontext implements the ordered attribute bindings supplied with
// a decision request: an append-only list of (key, value) pairs parsed from
// a flat "k:v,k:v,..." string, resolved by first-match lookup.
package reqcontext

import (
	"strings"

	"github.com/gtriggiano/hierauthz/pkg/rule"
)

// Binding is a single (key, value) pair.
type Binding struct {
	Key   string
	Value rule.Rule
}

// Context is an ordered sequence of attribute bindings. Keys need not be
// unique; the first occurrence wins on lookup.
type Context struct {
	bindings []Binding
}

// New builds a Context from explicit bindings, preserving order.
func New(bindings ...Binding) Context {
	return Context{bindings: bindings}
}

// Parse builds a Context from a flat "k:v,k:v,..." string. Empty input
// yields an empty context. Each value is parsed with the same int -> float
// -> bool -> string priority the expression parser uses for literals.
func Parse(s string) Context {
	ctx := Context{}
	if s == "" {
		return ctx
	}
	for _, piece := range strings.Split(s, ",") {
		if piece == "" {
			continue
		}
		key, value, found := strings.Cut(piece, ":")
		if !found {
			continue
		}
		ctx.bindings = append(ctx.bindings, Binding{Key: key, Value: rule.ParseScalar(value)})
	}
	return ctx
}

// Lookup returns the value bound to key, using first-match-wins ordering.
// It implements rule.Binding.
func (c Context) Lookup(key string) (rule.Rule, bool) {
	for _, b := range c.bindings {
		if b.Key == key {
			return b.Value, true
		}
	}
	return rule.Rule{}, false
}

// Len reports the number of bindings, including any shadowed duplicates.
func (c Context) Len() int {
	return len(c.bindings)
}
