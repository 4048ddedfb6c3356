package parser

import (
	"strings"

	"go.uber.org/zap"

	"github.com/cmmoran/aboutgen/internal/logger"
	"github.com/cmmoran/aboutgen/internal/model"
	"github.com/cmmoran/aboutgen/internal/scope"
	"github.com/cmmoran/aboutgen/pkg/parser"
)

// Builder turns provider output into the tree the emitters consume.
type Builder struct {
	opts *parser.Options
	log  *zap.Logger

	byName map[string]model.TypeDecl
}

func NewBuilder(opts *parser.Options, log *zap.Logger) *Builder {
	return &Builder{
		opts:   opts,
		log:    logger.OrNop(log),
		byName: make(map[string]model.TypeDecl),
	}
}

// Build is the main entrypoint:
//  1. Merge re-opened namespaces and drop repeated type definitions.
//  2. Remove excluded namespaces and types.
//  3. Index the remaining classes and enumerations by qualified name.
//  4. Resolve field type names against that index.
func (b *Builder) Build(roots ...*model.Root) *model.Root {
	out := &model.Root{}
	for _, r := range roots {
		if r == nil {
			continue
		}
		for _, ns := range r.Namespaces {
			if ns == nil {
				continue
			}
			if dst := out.Namespace(ns.Name); dst != nil {
				b.mergeNamespace(scope.Path{ns.Name}, dst, ns)
				continue
			}
			out.Namespaces = append(out.Namespaces, ns)
		}
	}

	kept := out.Namespaces[:0]
	for _, ns := range out.Namespaces {
		if b.opts.ExcludesNamespace(ns.Name) {
			b.log.Debug("namespace excluded", zap.String(logger.FieldScope, ns.Name))
			continue
		}
		b.pruneNamespace(scope.Path{ns.Name}, ns)
		kept = append(kept, ns)
	}
	out.Namespaces = kept

	_ = model.Walk(out, func(path scope.Path, d model.Declaration) error {
		if t, ok := d.(model.TypeDecl); ok {
			b.byName[scope.Qualify(path, d)] = t
		}
		return nil
	})
	_ = model.Walk(out, func(path scope.Path, d model.Declaration) error {
		if f, ok := d.(*model.Field); ok && f.Type.Decl == nil {
			f.Type = b.resolve(path, f.Type.Name)
		}
		return nil
	})
	return out
}

// mergeNamespace appends the children of src to dst. Nested namespaces merge
// by name; a class or enumeration already defined in dst keeps its first
// definition.
func (b *Builder) mergeNamespace(path scope.Path, dst, src *model.Namespace) {
	for _, c := range src.Children {
		switch c := c.(type) {
		case *model.Namespace:
			if d := dst.Namespace(c.Name); d != nil {
				b.mergeNamespace(path.Push(c.Name), d, c)
				continue
			}
		case *model.Class, *model.Enumeration:
			if hasTypeNamed(dst, c.SimpleName()) {
				b.log.Debug("repeated definition dropped", zap.String(logger.FieldScope, path.Qualify(c.SimpleName())))
				continue
			}
		}
		dst.Children = append(dst.Children, c)
	}
}

func hasTypeNamed(ns *model.Namespace, name string) bool {
	for _, c := range ns.Children {
		if _, ok := c.(model.TypeDecl); ok && c.SimpleName() == name {
			return true
		}
	}
	return false
}

func (b *Builder) pruneNamespace(path scope.Path, ns *model.Namespace) {
	kept := ns.Children[:0]
	for _, c := range ns.Children {
		qualified := path.Qualify(c.SimpleName())
		switch c := c.(type) {
		case *model.Namespace:
			if b.opts.ExcludesNamespace(qualified) {
				b.log.Debug("namespace excluded", zap.String(logger.FieldScope, qualified))
				continue
			}
			b.pruneNamespace(path.Push(c.Name), c)
		case *model.Class:
			if b.opts.ExcludesType(qualified) {
				b.log.Debug("type excluded", zap.String(logger.FieldScope, qualified))
				continue
			}
			b.pruneClass(path.Push(c.Name), c)
		case *model.Enumeration:
			if b.opts.ExcludesType(qualified) {
				b.log.Debug("type excluded", zap.String(logger.FieldScope, qualified))
				continue
			}
		}
		kept = append(kept, c)
	}
	ns.Children = kept
}

func (b *Builder) pruneClass(path scope.Path, c *model.Class) {
	kept := c.Members[:0]
	for _, m := range c.Members {
		if _, ok := m.(model.TypeDecl); ok && b.opts.ExcludesType(path.Qualify(m.SimpleName())) {
			b.log.Debug("type excluded", zap.String(logger.FieldScope, path.Qualify(m.SimpleName())))
			continue
		}
		if inner, ok := m.(*model.Class); ok {
			b.pruneClass(path.Push(inner.Name), inner)
		}
		kept = append(kept, m)
	}
	c.Members = kept
}

// resolve looks spelled up as written inside path: a "::"-rooted name is
// looked up as is, anything else from the innermost enclosing scope outward.
// A cv-qualified hit stays a type name, qualified so it is valid anywhere.
func (b *Builder) resolve(path scope.Path, spelled string) model.TypeRef {
	ref := model.TypeRef{Name: spelled}
	cv, name, ok := splitTypeName(spelled)
	if !ok {
		return ref
	}

	var hit model.TypeDecl
	var qualified string
	if rooted := strings.TrimPrefix(name, "::"); rooted != name {
		hit, qualified = b.byName[rooted], rooted
	} else {
		for i := len(path); i >= 0; i-- {
			q := path[:i].Qualify(name)
			if d, found := b.byName[q]; found {
				hit, qualified = d, q
				break
			}
		}
	}
	switch {
	case hit == nil:
		return ref
	case cv != "":
		return model.TypeRef{Name: cv + " " + qualified}
	default:
		return model.TypeRef{Decl: hit, Name: spelled}
	}
}

// splitTypeName separates cv-qualifiers and elaborated-type keywords from a
// spelled type. It reports false for anything that is not a plain, possibly
// qualified, name: pointers, references, arrays and template arguments.
func splitTypeName(spelled string) (cv, name string, ok bool) {
	if strings.ContainsAny(spelled, "*&[]<>(),") {
		return "", "", false
	}
	var quals, rest []string
	for _, tok := range strings.Fields(spelled) {
		switch tok {
		case "const", "volatile":
			quals = append(quals, tok)
		case "struct", "class", "union", "enum", "typename":
		default:
			rest = append(rest, tok)
		}
	}
	if len(rest) != 1 {
		return "", "", false
	}
	return strings.Join(quals, " "), rest[0], true
}
