package model

import (
	"github.com/cockroachdb/errors"

	"github.com/cmmoran/aboutgen/internal/scope"
)

// ErrInvalidModel marks malformed or unresolvable declaration trees. It is
// fatal for the artifact being generated.
var ErrInvalidModel = errors.New("invalid declaration model")

// Validate checks the assumptions the emitters rely on: every declaration is
// named, and every field type resolves either to a declaration of this tree or
// to a type-name string.
func Validate(r *Root) error {
	if r == nil {
		return errors.Wrap(ErrInvalidModel, "nil root")
	}
	idx, err := NewIndex(r)
	if err != nil {
		return err
	}
	return Walk(r, func(path scope.Path, d Declaration) error {
		if d.SimpleName() == "" {
			return errors.Wrapf(ErrInvalidModel, "unnamed declaration in %q", path.String())
		}
		f, ok := d.(*Field)
		if !ok {
			return nil
		}
		return validateTypeRef(idx, path, f)
	})
}

func validateTypeRef(idx *Index, path scope.Path, f *Field) error {
	where := path.Qualify(f.Name)
	switch {
	case f.Type.Decl != nil:
		if _, ok := idx.Path(f.Type.Decl); !ok {
			return errors.WithHintf(
				errors.Wrapf(ErrInvalidModel, "field %q refers to %q which is not part of the declaration tree", where, typeDeclName(f.Type.Decl)),
				"declarations referenced by field types must be reachable from a top-level namespace",
			)
		}
	case f.Type.Name == "":
		return errors.Wrapf(ErrInvalidModel, "field %q has no resolvable type", where)
	}
	return nil
}

func typeDeclName(d TypeDecl) string {
	switch t := d.(type) {
	case *Class:
		if t != nil {
			return t.Name
		}
	case *Enumeration:
		if t != nil {
			return t.Name
		}
	}
	return "<nil>"
}
