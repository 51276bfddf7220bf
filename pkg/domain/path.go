package domain

import (
	"fmt"
	"strings"
)

// PathSeparator joins segments in the canonical string form of a Path.
// Segments may not contain it, so the string form is unambiguous and
// usable as a map key.
const PathSeparator = "/"

// Path addresses a variable or subtree in the state tree as an ordered
// list of segments from the root. The zero value addresses the root.
type Path []string

// NewPath validates every segment and returns the resulting path.
func NewPath(segments ...string) (Path, error) {
	for _, s := range segments {
		if err := ValidateSegment(s); err != nil {
			return nil, err
		}
	}
	p := make(Path, len(segments))
	copy(p, segments)
	return p, nil
}

// MustPath is NewPath for statically known segments. It panics on invalid input.
func MustPath(segments ...string) Path {
	p, err := NewPath(segments...)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePath builds a path from its canonical string form. Leading and
// trailing separators are ignored; the empty string is the root.
func ParsePath(s string) (Path, error) {
	trimmed := strings.Trim(s, PathSeparator)
	if trimmed == "" {
		return Path{}, nil
	}
	return NewPath(strings.Split(trimmed, PathSeparator)...)
}

// ValidateSegment reports whether a single segment is usable in a path.
func ValidateSegment(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty segment", ErrInvalidPath)
	}
	if strings.Contains(s, PathSeparator) {
		return fmt.Errorf("%w: segment %q contains %q", ErrInvalidPath, s, PathSeparator)
	}
	return nil
}

// String returns the canonical separator-joined form.
func (p Path) String() string {
	return strings.Join(p, PathSeparator)
}

// IsRoot reports whether the path addresses the tree root.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Clone returns an independent copy.
func (p Path) Clone() Path {
	c := make(Path, len(p))
	copy(c, p)
	return c
}

// Child returns a new path with one more segment appended. The segment is
// assumed to be valid; callers accepting external input should run
// ValidateSegment first.
func (p Path) Child(segment string) Path {
	c := make(Path, len(p)+1)
	copy(c, p)
	c[len(p)] = segment
	return c
}

// Join returns a new path with all of q's segments appended.
func (p Path) Join(q Path) Path {
	c := make(Path, len(p)+len(q))
	copy(c, p)
	copy(c[len(p):], q)
	return c
}

// Parent returns the path one level up. The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return p[:len(p)-1].Clone()
}

// Base returns the final segment, or the empty string for the root.
func (p Path) Base() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Equal reports whether both paths have identical segments.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether p lies at or under prefix.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Rebase rewrites p under to when p lies at or under from, and returns it
// unchanged otherwise. The second result reports whether a rewrite happened.
func (p Path) Rebase(from, to Path) (Path, bool) {
	if !p.HasPrefix(from) {
		return p, false
	}
	return to.Join(p[len(from):]), true
}
