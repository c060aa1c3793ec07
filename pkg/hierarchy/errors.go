package hierarchy

import "fmt"

// DuplicateResource reports that a config entry targeted a fully-normalized
// path whose node already carries an access rule.
type DuplicateResource struct{ Path string }

func (e *DuplicateResource) Error() string {
	return fmt.Sprintf("hierarchy: duplicate resource %q", e.Path)
}

// AmbiguousResource reports that a node was given two differently-named
// parametric children (":foo" and ":bar" at the same level).
type AmbiguousResource struct {
	Path     string
	Existing string
}

func (e *AmbiguousResource) Error() string {
	return fmt.Sprintf("hierarchy: resource %q is ambiguous with existing parametric segment %q", e.Path, e.Existing)
}
