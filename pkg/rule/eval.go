package rule

// Binding is the minimal interface Eval needs from a context: ordered,
// first-match lookup by key. pkg/reqcontext.Context implements it.
type Binding interface {
	Lookup(key string) (Rule, bool)
}

// Eval is a pure recursive reducer: no I/O, no side effects, no global
// state. It evaluates a parsed Rule tree against a Context, producing
// either a runtime Rule value or one of the RuleError variants.
func Eval(r Rule, ctx Binding) (Rule, error) {
	switch r.Type {
	case TypeStr:
		if !r.IsAttributeReference() {
			return r, nil
		}
		if val, ok := ctx.Lookup(r.AttributeName()); ok {
			return val, nil
		}
		return Str(""), nil
	case TypeBool, TypeInt, TypeFloat:
		return r, nil
	case TypeTuple:
		return evalTuple(r, ctx)
	default:
		// TypeOp has no standalone evaluation semantics; it only ever
		// appears as Tuple.Children[0]. Returned unchanged if it somehow
		// reaches here as a top-level rule.
		return r, nil
	}
}

func evalTuple(r Rule, ctx Binding) (Rule, error) {
	if len(r.Children) == 0 {
		return Tuple(), nil
	}
	head := r.Children[0]
	if head.Type != TypeOp {
		// Already-evaluated data tuple (no operator head): it evaluates
		// to the empty tuple, not to itself.
		return Tuple(), nil
	}

	switch head.Op {
	case KindIf:
		return evalIf(r, ctx)
	case KindEq:
		return evalEq(r, ctx)
	case KindAnd:
		return evalAndOr(r, ctx, true)
	case KindOr:
		return evalAndOr(r, ctx, false)
	case KindIn:
		return evalIn(r, ctx)
	case KindList:
		return evalList(r, ctx)
	default:
		return Tuple(), nil
	}
}

func evalIf(r Rule, ctx Binding) (Rule, error) {
	if len(r.Children) != 4 {
		return Rule{}, &InvalidIf{Node: r}
	}
	condition, err := Eval(r.Children[1], ctx)
	if err != nil {
		return Rule{}, err
	}
	// Both branches are evaluated eagerly regardless of which one is
	// selected (spec.md §4.2): an implementer preserving semantics must
	// not short-circuit here, since a branch may itself raise.
	thenVal, err := Eval(r.Children[2], ctx)
	if err != nil {
		return Rule{}, err
	}
	elseVal, err := Eval(r.Children[3], ctx)
	if err != nil {
		return Rule{}, err
	}

	if condition.Type != TypeBool {
		return Rule{}, &InvalidIfCondition{Value: condition}
	}
	if condition.Bool {
		return thenVal, nil
	}
	return elseVal, nil
}

func evalEq(r Rule, ctx Binding) (Rule, error) {
	if len(r.Children) != 3 {
		return Rule{}, &InvalidEq{Node: r}
	}
	left, err := Eval(r.Children[1], ctx)
	if err != nil {
		return Rule{}, err
	}
	right, err := Eval(r.Children[2], ctx)
	if err != nil {
		return Rule{}, err
	}
	if !sameVariant(left, right) {
		return Rule{}, &CannotCompare{Left: left, Right: right}
	}
	return BoolVal(scalarEqual(left, right)), nil
}

func evalAndOr(r Rule, ctx Binding, isAnd bool) (Rule, error) {
	if len(r.Children) != 3 {
		if isAnd {
			return Rule{}, &InvalidAnd{Node: r}
		}
		return Rule{}, &InvalidOr{Node: r}
	}
	left, err := Eval(r.Children[1], ctx)
	if err != nil {
		return Rule{}, err
	}
	right, err := Eval(r.Children[2], ctx)
	if err != nil {
		return Rule{}, err
	}
	if left.Type != TypeBool || right.Type != TypeBool {
		return Rule{}, &CannotCompare{Left: left, Right: right}
	}
	if isAnd {
		return BoolVal(left.Bool && right.Bool), nil
	}
	return BoolVal(left.Bool || right.Bool), nil
}

func evalIn(r Rule, ctx Binding) (Rule, error) {
	if len(r.Children) != 3 {
		return Rule{}, &InvalidIn{Node: r}
	}
	left, err := Eval(r.Children[1], ctx)
	if err != nil {
		return Rule{}, err
	}
	right, err := Eval(r.Children[2], ctx)
	if err != nil {
		return Rule{}, err
	}
	if right.Type != TypeTuple {
		return Rule{}, &InvalidIn{Node: r}
	}
	for _, item := range right.Children {
		if sameVariant(left, item) && scalarEqual(left, item) {
			return BoolVal(true), nil
		}
	}
	return BoolVal(false), nil
}

// CompareScalars compares two evaluated scalar rules for equality,
// reporting CannotCompare when they are not the same variant. Exported so
// callers outside this package (parametric path-segment matching) can reuse
// the exact comparison semantics expressions use for "eq" and "in".
func CompareScalars(a, b Rule) (bool, error) {
	if !sameVariant(a, b) {
		return false, &CannotCompare{Left: a, Right: b}
	}
	return scalarEqual(a, b), nil
}

func evalList(r Rule, ctx Binding) (Rule, error) {
	values := make([]Rule, 0, len(r.Children)-1)
	for _, child := range r.Children[1:] {
		v, err := Eval(child, ctx)
		if err != nil {
			return Rule{}, err
		}
		values = append(values, v)
	}
	return Tuple(values...), nil
}
