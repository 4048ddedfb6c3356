// Package scope accumulates the enclosing scope names of a declaration while
// a declaration tree is walked, and turns them into qualified names.
package scope

import (
	"strings"
)

// Separator joins scope names in a qualified name.
const Separator = "::"

// Named is anything with a simple (unqualified) name.
type Named interface {
	SimpleName() string
}

// Path is the ordered list of enclosing scope names, outermost first:
// namespaces, then outer classes. A Path is never stored on a declaration;
// it is threaded through recursive calls.
type Path []string

// Push returns a new Path extended by name. The receiver is not modified, so
// sibling branches of a walk never observe each other's names.
func (p Path) Push(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Qualify returns the fully-qualified name of name inside p,
// e.g. "outer_ns::OuterClass::InnerClass".
func (p Path) Qualify(name string) string {
	if len(p) == 0 {
		return name
	}
	return strings.Join(p, Separator) + Separator + name
}

// Token flattens p and the trailing names into a single identifier-safe token
// joined by "__". Characters that cannot appear in an identifier become '_'.
func (p Path) Token(names ...string) string {
	parts := make([]string, 0, len(p)+len(names))
	for _, s := range p {
		parts = append(parts, sanitize(s))
	}
	for _, s := range names {
		parts = append(parts, sanitize(s))
	}
	return strings.Join(parts, "__")
}

// Last returns the innermost scope name, or "" for an empty path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Qualify resolves the fully-qualified name of d declared inside p.
func Qualify(p Path, d Named) string {
	return p.Qualify(d.SimpleName())
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
