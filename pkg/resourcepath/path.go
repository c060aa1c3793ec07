// Package resourcepath implements the normalized, reversed sequence of path
// segments walked by the hierarchy decision algorithm.
package resourcepath

import (
	"fmt"
	"strings"
)

// ResourcePath is a sequence of segments, stored reversed so that Pop
// yields the next segment to match without shifting the whole slice.
type ResourcePath struct {
	// segments is stored in pop order: segments[len-1] is the first
	// segment of the original path.
	segments []string
	cursor   int
}

// FormatError reports a path string that does not start with "/".
type FormatError struct{ Path string }

func (e *FormatError) Error() string {
	return fmt.Sprintf("resourcepath: %q does not start with '/'", e.Path)
}

// Parse normalizes a path string into a ResourcePath:
//  1. require a leading '/'
//  2. collapse runs of consecutive '/' into one (the §9 fix: only '/' is
//     collapsed, not every repeated character)
//  3. drop the leading slash
//  4. split on '/'
//  5. reverse, so Pop yields the next segment
//
// A trailing slash produces a final empty segment "" that participates in
// matching as the "any descendant" sentinel.
func Parse(path string) (*ResourcePath, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, &FormatError{Path: path}
	}

	collapsed := collapseSlashes(path)
	trimmed := strings.TrimPrefix(collapsed, "/")
	segments := strings.Split(trimmed, "/")

	reversed := make([]string, len(segments))
	for i, s := range segments {
		reversed[len(segments)-1-i] = s
	}

	return &ResourcePath{segments: reversed}, nil
}

// collapseSlashes replaces runs of consecutive '/' with a single '/'.
func collapseSlashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSlash := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Pop returns the next segment and advances the cursor. The second return
// value is false once every segment has been consumed. Pop never mutates
// shared state visible to other callers: each ResourcePath instance owns
// its own cursor, and callers are expected to obtain a fresh instance (via
// Parse) per request rather than share one across calls.
func (p *ResourcePath) Pop() (string, bool) {
	if p == nil || p.cursor >= len(p.segments) {
		return "", false
	}
	s := p.segments[len(p.segments)-1-p.cursor]
	p.cursor++
	return s, true
}

// Remaining reports how many segments are left to pop.
func (p *ResourcePath) Remaining() int {
	if p == nil {
		return 0
	}
	return len(p.segments) - p.cursor
}

// Segments returns the original (forward-ordered) segments, for display
// and for re-deriving a full path string.
func (p *ResourcePath) Segments() []string {
	out := make([]string, len(p.segments))
	for i, s := range p.segments {
		out[len(p.segments)-1-i] = s
	}
	return out
}
