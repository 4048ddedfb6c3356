package emit

import (
	"io"

	"github.com/cmmoran/aboutgen/internal/model"
	"github.com/cmmoran/aboutgen/internal/scope"
)

// FallbackFormat is written for values that match no declared enumerator.
const FallbackFormat = "INVALID <<%s>>"

// FormatterGuardPrefix starts the macro guarding each stream formatter. The
// reflection and enumeration artifacts both define formatters, and one
// translation unit may include both.
const FormatterGuardPrefix = "ABOUT_ENUM_OSTREAM__"

// EnumOstreamEmitter renders one stream formatter per enumeration. Classes
// are only walked for the enumerations nested inside them.
type EnumOstreamEmitter struct {
	out   *sink
	cfg   Config
	stats Stats
}

func NewEnumOstreamEmitter(w io.Writer, cfg Config) *EnumOstreamEmitter {
	return &EnumOstreamEmitter{out: asSink(w), cfg: cfg}
}

func (e *EnumOstreamEmitter) Stats() Stats { return e.stats }

func (e *EnumOstreamEmitter) Class(path scope.Path, c *model.Class) error {
	inner := &enumFinder{e: e, inner: path.Push(c.Name)}
	for _, m := range c.Members {
		if err := m.Accept(inner); err != nil {
			return err
		}
	}
	return e.out.err
}

func (e *EnumOstreamEmitter) Enumeration(path scope.Path, en *model.Enumeration) error {
	writeFormatter(e.out, e.cfg, path, en)
	e.stats.Enumerations++
	return e.out.err
}

type enumFinder struct {
	e     *EnumOstreamEmitter
	inner scope.Path
}

func (f *enumFinder) VisitField(*model.Field) error       { return nil }
func (f *enumFinder) VisitMethod(*model.Method) error     { return nil }
func (f *enumFinder) VisitOperator(*model.Operator) error { return nil }
func (f *enumFinder) VisitClass(c *model.Class) error     { return f.e.Class(f.inner, c) }
func (f *enumFinder) VisitEnumeration(en *model.Enumeration) error {
	return f.e.Enumeration(f.inner, en)
}

// FormatterGuard returns the macro guarding the stream formatter of the
// enumeration name declared inside path.
func FormatterGuard(path scope.Path, name string) string {
	return FormatterGuardPrefix + path.Token(name)
}

// writeFormatter renders operator<< for en: one branch per enumerator in
// declaration order, each returning on match, then the fallback.
func writeFormatter(o *sink, cfg Config, path scope.Path, en *model.Enumeration) {
	qualified := scope.Qualify(path, en)
	prefix := en.Name
	if cfg.LabelStyle == LabelFull {
		prefix = qualified
	}
	guard := FormatterGuard(path, en.Name)
	o.printf("\n/**\n * @brief Writes the label of a <code>%s</code> value to an output stream\n */\n", qualified)
	o.printf("#ifndef %s\n#define %s\n", guard, guard)
	o.printf("inline ::std::ostream& operator<<(::std::ostream& os, const %s e)\n{\n", qualified)
	for _, v := range en.Values {
		o.printf("  if (e == %s::%s)\n  {\n", qualified, v.Label)
		o.printf("    return os << \"%s::%s\";\n  }\n", prefix, v.Label)
	}
	o.printf("  return os << \""+FallbackFormat+"\";\n}\n", en.Name)
	o.printf("#endif  // %s\n", guard)
}

var _ Emitter = (*EnumOstreamEmitter)(nil)
