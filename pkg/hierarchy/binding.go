package hierarchy

import "github.com/gtriggiano/hierauthz/pkg/rule"

// ResourceAttributes is the raw, unparsed form of a config entry: an access
// rule given as expression source text, plus an optional human description.
type ResourceAttributes struct {
	AccessRule  string
	Description string
}

// BuildFromResources adapts a {path -> attrs} mapping into a built
// Hierarchy, pre-parsing each AccessRule source string once at build time
// so that IsAllowed never re-parses an expression per request. Insert's
// ambiguity check fails in either iteration order. Its duplicate check only
// fires when the node already carries an access rule, so for two entries
// that normalize to the same path (such as "/a" and "//a") with only one of
// them carrying a rule, whether DuplicateResource is returned depends on
// map iteration order.
func BuildFromResources(resources map[string]ResourceAttributes) (*Hierarchy, error) {
	h := New()
	for path, attrs := range resources {
		var parsed *rule.Rule
		if attrs.AccessRule != "" {
			r, err := rule.Parse(attrs.AccessRule)
			if err != nil {
				return nil, err
			}
			parsed = &r
		}
		err := h.Insert(path, Attributes{
			AccessRule:  parsed,
			Description: attrs.Description,
		})
		if err != nil {
			return nil, err
		}
	}
	return h, nil
}
