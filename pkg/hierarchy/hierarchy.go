// Package hierarchy implements the prefix tree of resources: insertion of
// literal and parametric path segments, and the is_allowed decision walk
// that evaluates inherited rules and substitutes parametric segments from a
// request context.
package hierarchy

import (
	"strings"

	"github.com/gtriggiano/hierauthz/pkg/permission"
	"github.com/gtriggiano/hierauthz/pkg/reqcontext"
	"github.com/gtriggiano/hierauthz/pkg/resourcepath"
	"github.com/gtriggiano/hierauthz/pkg/rule"
)

// Node is an interior or decision node in the hierarchy. An interior node
// has no access rule; a decision node does. Both may have children. All
// nodes are created during build and are immutable afterward.
type Node struct {
	Name        string
	AccessRule  *rule.Rule
	Description string
	Children    map[string]*Node
	// Parametric holds the bare attribute name of a ":name" segment
	// defined at this level. Empty when this node has no parametric
	// child. At most one parametric child is allowed per node.
	Parametric string
}

func newNode(name string) *Node {
	return &Node{Name: name, Children: make(map[string]*Node)}
}

// Attributes is the optional set of attributes a config entry attaches to
// a resource path.
type Attributes struct {
	AccessRule  *rule.Rule
	Description string
}

// Hierarchy is a prefix tree of resources. It exclusively owns its node
// tree. A built Hierarchy is immutable: IsAllowed may be called
// concurrently from multiple goroutines without synchronization, but
// Insert must complete before any concurrent reader observes the
// Hierarchy.
type Hierarchy struct {
	root *Node
}

// New returns an empty Hierarchy with a root interior node named "".
func New() *Hierarchy {
	return &Hierarchy{root: newNode("")}
}

// Root returns the root node, mainly for debugging/introspection.
func (h *Hierarchy) Root() *Node {
	return h.root
}

// NodeCount returns the total number of nodes in the tree, root included.
func (h *Hierarchy) NodeCount() int {
	return countNodes(h.root)
}

func countNodes(n *Node) int {
	count := 1
	for _, c := range n.Children {
		count += countNodes(c)
	}
	return count
}

// Insert normalizes path and attaches attrs to the resource it names,
// creating intermediate interior nodes lazily. A segment of the form
// ":name" is parametric: the node may have at most one parametric child,
// keyed by the attribute name rather than the literal segment text.
func (h *Hierarchy) Insert(path string, attrs Attributes) error {
	rp, err := resourcepath.Parse(path)
	if err != nil {
		return err
	}
	return insert(h.root, rp, path, attrs)
}

func insert(node *Node, rp *resourcepath.ResourcePath, fullPath string, attrs Attributes) error {
	seg, ok := rp.Pop()
	if !ok {
		if node.AccessRule != nil {
			return &DuplicateResource{Path: fullPath}
		}
		node.AccessRule = attrs.AccessRule
		node.Description = attrs.Description
		return nil
	}

	key := seg
	if strings.HasPrefix(seg, ":") {
		name := seg[1:]
		if node.Parametric != "" && node.Parametric != name {
			return &AmbiguousResource{Path: fullPath, Existing: node.Parametric}
		}
		node.Parametric = name
		key = name
	}

	child, ok := node.Children[key]
	if !ok {
		child = newNode(key)
		node.Children[key] = child
	}
	return insert(child, rp, fullPath, attrs)
}

// IsAllowed decides whether op is permitted on path under ctx. It walks the
// tree from the root, evaluating each level's access rule (and any
// trailing-slash blanket rule) and substituting parametric segments from
// ctx, short-circuiting on the first rule that allows op.
func (h *Hierarchy) IsAllowed(op permission.Operation, path string, ctx reqcontext.Context) (bool, error) {
	rp, err := resourcepath.Parse(path)
	if err != nil {
		return false, err
	}
	return isAllowed(h.root, op, rp, ctx)
}

func isAllowed(node *Node, op permission.Operation, path *resourcepath.ResourcePath, ctx reqcontext.Context) (bool, error) {
	if node.AccessRule != nil {
		allowed, err := evaluatesAllow(*node.AccessRule, op, ctx)
		if err != nil {
			return false, err
		}
		if allowed {
			return true, nil
		}
	}

	seg, ok := path.Pop()
	if !ok {
		return false, nil
	}

	if blanket, ok := node.Children[""]; ok && blanket.AccessRule != nil {
		allowed, err := evaluatesAllow(*blanket.AccessRule, op, ctx)
		if err != nil {
			return false, err
		}
		if allowed {
			return true, nil
		}
	}

	key := seg
	if node.Parametric != "" {
		attrVal, found := ctx.Lookup(node.Parametric)
		if !found {
			return false, &rule.KeyNotInContext{Key: node.Parametric}
		}
		segVal := rule.ParseScalar(seg)
		equal, err := rule.CompareScalars(attrVal, segVal)
		if err != nil {
			return false, err
		}
		if !equal {
			return false, nil
		}
		key = node.Parametric
	}

	child, ok := node.Children[key]
	if !ok {
		return false, nil
	}
	return isAllowed(child, op, path, ctx)
}

// evaluatesAllow evaluates an access rule and reports whether it permits op.
func evaluatesAllow(r rule.Rule, op permission.Operation, ctx reqcontext.Context) (bool, error) {
	val, err := rule.Eval(r, ctx)
	if err != nil {
		return false, err
	}
	p := permission.FromRule(val)
	return op.AllowedFor(p), nil
}
