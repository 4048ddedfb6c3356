package model

import (
	"github.com/cmmoran/aboutgen/internal/scope"
)

// Index maps every declaration of a tree to the path of scopes enclosing it.
// It is built once per run so that a field's type reference can be turned
// into a qualified name without back-references in the tree.
type Index struct {
	paths map[Declaration]scope.Path
}

// NewIndex walks r and records the enclosing path of every declaration.
func NewIndex(r *Root) (*Index, error) {
	x := &Index{paths: make(map[Declaration]scope.Path)}
	err := Walk(r, func(path scope.Path, d Declaration) error {
		x.paths[d] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return x, nil
}

// Path returns the enclosing path of d.
func (x *Index) Path(d Declaration) (scope.Path, bool) {
	p, ok := x.paths[d]
	return p, ok
}

// QualifiedName returns the fully-qualified name of d, if d is in the tree.
func (x *Index) QualifiedName(d Declaration) (string, bool) {
	p, ok := x.paths[d]
	if !ok {
		return "", false
	}
	return scope.Qualify(p, d), true
}

// Len reports the number of indexed declarations.
func (x *Index) Len() int {
	return len(x.paths)
}
