// Package permission implements the 5-bit operation bitset and its
// conversion from an evaluated access-rule value.
package permission

import "github.com/gtriggiano/hierauthz/pkg/rule"

// Permission is an unsigned 5-bit set of allowed operations.
type Permission uint8

const (
	Create Permission = 0b00001
	Read   Permission = 0b00010
	Update Permission = 0b00100
	Delete Permission = 0b01000
	List   Permission = 0b10000
	All    Permission = Create | Read | Update | Delete | List
)

// Operation is a single requested action.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpList   Operation = "list"
)

// ParseOperation validates a wire-supplied operation name, rejecting
// anything other than the five known operations.
func ParseOperation(s string) (Operation, bool) {
	op := Operation(s)
	switch op {
	case OpCreate, OpRead, OpUpdate, OpDelete, OpList:
		return op, true
	default:
		return "", false
	}
}

// bit returns the Permission bit corresponding to an Operation. Unknown
// operation names carry no bit.
func (o Operation) bit() Permission {
	switch o {
	case OpCreate:
		return Create
	case OpRead:
		return Read
	case OpUpdate:
		return Update
	case OpDelete:
		return Delete
	case OpList:
		return List
	default:
		return 0
	}
}

// AllowedFor reports whether the operation's bit is set in p.
func (o Operation) AllowedFor(p Permission) bool {
	return p&o.bit() != 0
}

// operationNames maps the textual operation names an evaluated rule may
// produce to their Permission bit. "all" is handled separately as a
// shorthand for the full bitset, not as a single operation name.
var operationNames = map[string]Permission{
	string(OpCreate): Create,
	string(OpRead):   Read,
	string(OpUpdate): Update,
	string(OpDelete): Delete,
	string(OpList):   List,
}

// FromRule interprets an already-evaluated rule.Rule as a Permission
// bitset. Only a Tuple whose every element is a Str is meaningful; any
// other shape collapses to 0. If any element is "all", the result is All
// regardless of the other names; otherwise any unknown operation name
// within the tuple collapses the result to 0 (deny-by-default on malformed
// rule output, not an error).
func FromRule(r rule.Rule) Permission {
	if r.Type != rule.TypeTuple {
		return 0
	}

	for _, item := range r.Children {
		if item.Type != rule.TypeStr {
			return 0
		}
	}
	for _, item := range r.Children {
		if item.Str == "all" {
			return All
		}
	}

	var result Permission
	for _, item := range r.Children {
		bit, ok := operationNames[item.Str]
		if !ok {
			return 0
		}
		result |= bit
	}
	return result
}
