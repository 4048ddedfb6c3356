package emit

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cmmoran/aboutgen/internal/logger"
	"github.com/cmmoran/aboutgen/internal/model"
	"github.com/cmmoran/aboutgen/internal/scope"
)

// GuardPrefix identifies guards of generated documents.
const GuardPrefix = "__ABOUT_AUTO_GENERATED__"

// GuardToken derives the include-guard token for a target identifier: the
// final path segment without its extension, upper-cased, with '-' and '.'
// replaced by '_', behind GuardPrefix. "out/foo-bar.hpp" yields
// "__ABOUT_AUTO_GENERATED__FOO_BAR".
func GuardToken(target string) string {
	base := target
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if ext := filepath.Ext(base); ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ToUpper(base)
	base = strings.NewReplacer("-", "_", ".", "_").Replace(base)
	return GuardPrefix + base
}

// Document describes one generated artifact.
type Document struct {
	Kind     Kind
	Target   string   // identifier the guard is derived from
	Includes []string // source paths echoed as inclusion directives
}

// Guard returns the full include-guard macro of the document.
func (d Document) Guard() string {
	return GuardToken(d.Target) + "__" + d.Kind.guardSuffix()
}

// Assembler frames emitted fragments into complete documents.
type Assembler struct {
	cfg Config
	log *zap.Logger
}

func NewAssembler(cfg Config, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{cfg: cfg, log: log}
}

// Render assembles doc into memory. Callers that must not leave partial
// artifacts behind render first and write the bytes afterwards.
func (a *Assembler) Render(root *model.Root, doc Document) ([]byte, Stats, error) {
	var buf bytes.Buffer
	stats, err := a.Assemble(&buf, root, doc)
	if err != nil {
		return nil, stats, err
	}
	return buf.Bytes(), stats, nil
}

// Assemble writes the opening frame, every class and enumeration reachable
// from the top-level namespaces of root, and the closing frame to w.
func (a *Assembler) Assemble(w io.Writer, root *model.Root, doc Document) (Stats, error) {
	if root == nil {
		return Stats{}, errors.Wrap(model.ErrInvalidModel, "nil root")
	}
	idx, err := model.NewIndex(root)
	if err != nil {
		return Stats{}, err
	}

	out := &sink{w: w}
	var em Emitter
	switch doc.Kind {
	case KindReflect:
		em = NewReflectionEmitter(out, a.cfg, idx)
	case KindMeta:
		em = NewMetadataEmitter(out, a.cfg, idx)
	case KindEnumOstream:
		em = NewEnumOstreamEmitter(out, a.cfg)
	default:
		return Stats{}, errors.Newf("unsupported artifact kind %d", int(doc.Kind))
	}

	guard := doc.Guard()
	openFrame(out, doc.Kind, guard, doc.Includes)

	t := &traversal{em: em}
	for _, ns := range root.Namespaces {
		if err = t.VisitNamespace(ns); err != nil {
			return em.Stats(), errors.Wrapf(err, "render %s artifact", doc.Kind)
		}
	}

	closeFrame(out, doc.Kind, guard)
	if out.err != nil {
		return em.Stats(), out.err
	}
	a.log.Debug("assembled artifact",
		zap.Stringer(logger.FieldArtifact, doc.Kind),
		zap.String(logger.FieldTarget, doc.Target),
		zap.Int64(logger.FieldBytes, out.n),
		zap.Int("classes", em.Stats().Classes),
		zap.Int("enumerations", em.Stats().Enumerations),
	)
	return em.Stats(), nil
}

// traversal hands every class and enumeration of a namespace, including those
// of nested namespaces, to the emitter.
type traversal struct {
	path scope.Path
	em   Emitter
}

func (t *traversal) VisitNamespace(n *model.Namespace) error {
	if n == nil {
		return errors.Wrapf(model.ErrInvalidModel, "nil namespace in %q", t.path.String())
	}
	inner := &traversal{path: t.path.Push(n.Name), em: t.em}
	for _, c := range n.Children {
		if c == nil {
			return errors.Wrapf(model.ErrInvalidModel, "nil declaration in %q", inner.path.String())
		}
		if err := c.AcceptScope(inner); err != nil {
			return err
		}
	}
	return nil
}

func (t *traversal) VisitClass(c *model.Class) error {
	return t.em.Class(t.path, c)
}

func (t *traversal) VisitEnumeration(e *model.Enumeration) error {
	return t.em.Enumeration(t.path, e)
}

var standardIncludes = map[Kind][]string{
	KindReflect:     {"ostream", "tuple", "type_traits", "utility"},
	KindMeta:        {"tuple", "type_traits", "utility"},
	KindEnumOstream: {"ostream"},
}

func openFrame(o *sink, kind Kind, guard string, includes []string) {
	o.printf("/**\n * THIS CODE WAS AUTO-GENERATED\n */\n")
	o.printf("#ifndef %s\n#define %s\n\n", guard, guard)
	o.printf("// C++ Standard Library\n")
	for _, h := range standardIncludes[kind] {
		o.printf("#include <%s>\n", h)
	}
	o.printf("\n// About\n#include <about/about.hpp>\n\n")
	o.printf("// USER LIBRARIES\n")
	for _, inc := range includes {
		o.printf("#include \"%s\"\n", inc)
	}
	o.printf("\nnamespace about\n{\n")
	if kind == KindMeta {
		o.printf("namespace detail\n{\n")
	}
}

func closeFrame(o *sink, kind Kind, guard string) {
	o.printf("\n")
	if kind == KindMeta {
		o.printf("}  // namespace detail\n")
	}
	o.printf("}  // namespace about\n\n#endif  // %s\n", guard)
}
