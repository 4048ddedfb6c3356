package model

import (
	"github.com/cockroachdb/errors"

	"github.com/cmmoran/aboutgen/internal/scope"
)

// WalkFunc is called for every declaration reached by Walk, with the path of
// scopes enclosing it.
type WalkFunc func(path scope.Path, d Declaration) error

// Walk visits every declaration under r depth-first, preserving the member
// order of each scope. A non-nil error from fn stops the walk.
func Walk(r *Root, fn WalkFunc) error {
	if r == nil {
		return nil
	}
	for _, ns := range r.Namespaces {
		if ns == nil {
			return errors.Wrap(ErrInvalidModel, "nil namespace at root")
		}
		w := &walker{fn: fn}
		if err := w.VisitNamespace(ns); err != nil {
			return err
		}
	}
	return nil
}

type walker struct {
	path scope.Path
	fn   WalkFunc
}

func (w *walker) descend(name string) *walker {
	return &walker{path: w.path.Push(name), fn: w.fn}
}

func (w *walker) nilDecl(kind string) error {
	return errors.Wrapf(ErrInvalidModel, "nil %s in %q", kind, w.path.String())
}

func (w *walker) VisitNamespace(n *Namespace) error {
	if n == nil {
		return w.nilDecl("namespace")
	}
	if err := w.fn(w.path, n); err != nil {
		return err
	}
	inner := w.descend(n.Name)
	for _, c := range n.Children {
		if c == nil {
			return inner.nilDecl("declaration")
		}
		if err := c.AcceptScope(inner); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) VisitClass(c *Class) error {
	if c == nil {
		return w.nilDecl("class")
	}
	if err := w.fn(w.path, c); err != nil {
		return err
	}
	inner := w.descend(c.Name)
	for _, m := range c.Members {
		if m == nil {
			return inner.nilDecl("member")
		}
		if err := m.Accept(inner); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) VisitEnumeration(e *Enumeration) error {
	if e == nil {
		return w.nilDecl("enumeration")
	}
	return w.fn(w.path, e)
}

func (w *walker) VisitField(f *Field) error {
	if f == nil {
		return w.nilDecl("field")
	}
	return w.fn(w.path, f)
}

func (w *walker) VisitMethod(m *Method) error {
	if m == nil {
		return w.nilDecl("method")
	}
	return w.fn(w.path, m)
}

func (w *walker) VisitOperator(o *Operator) error {
	if o == nil {
		return w.nilDecl("operator")
	}
	return w.fn(w.path, o)
}
