package emit

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/cmmoran/aboutgen/internal/model"
	"github.com/cmmoran/aboutgen/internal/scope"
)

// Emitter renders the fragments for one class or enumeration, recursing into
// nested declarations.
type Emitter interface {
	Class(path scope.Path, c *model.Class) error
	Enumeration(path scope.Path, e *model.Enumeration) error
	Stats() Stats
}

// ClassEmitter renders ClassMetaInfo specializations and member-existence
// markers. In metadata mode it also records declaration names and member types.
type ClassEmitter struct {
	out      *sink
	cfg      Config
	index    *model.Index
	metadata bool
	detail   string // qualifier for traits declared in about::detail
	stats    Stats
}

// NewReflectionEmitter returns an emitter for the member-access artifact.
// Its fragments live in namespace about, so traits are qualified with detail::.
// Nested enumerations get stream formatters.
func NewReflectionEmitter(w io.Writer, cfg Config, idx *model.Index) *ClassEmitter {
	return &ClassEmitter{out: asSink(w), cfg: cfg, index: idx, detail: "detail::"}
}

// NewMetadataEmitter returns an emitter for the metadata artifact, whose
// fragments live in namespace about::detail. Nested enumerations get a name
// block.
func NewMetadataEmitter(w io.Writer, cfg Config, idx *model.Index) *ClassEmitter {
	return &ClassEmitter{out: asSink(w), cfg: cfg, index: idx, metadata: true}
}

func (e *ClassEmitter) Stats() Stats { return e.stats }

// Class renders c declared inside path, then walks its members once in
// declaration order: existence markers for fields, methods and operators, and
// recursion into nested classes and enumerations.
func (e *ClassEmitter) Class(path scope.Path, c *model.Class) error {
	qualified := scope.Qualify(path, c)
	fields := c.Fields()

	// Resolve everything that can fail before writing, so a bad field type
	// never leaves half a specialization behind.
	var types []string
	if e.metadata {
		var err error
		if types, err = e.fieldTypes(path, c, fields); err != nil {
			return err
		}
	}

	wrappers := make([]string, len(fields))
	refs := make([]string, len(fields))
	for i, f := range fields {
		wrappers[i] = e.wrapperName(path, c, f)
		refs[i] = "v." + f.Name
	}

	o := e.out
	o.printf("\n/**\n * @brief Reflection information for <code>%s</code>\n */\n", qualified)
	o.printf("template <> struct %sClassMetaInfo<%s>\n{\n", e.detail, qualified)
	if e.metadata {
		o.printf("  /// Class name as string literal\n")
		o.printf("  static constexpr const char* name = \"%s\";\n\n", c.Name)
		o.printf("  /// Class name with full namespace as string literal\n")
		o.printf("  static constexpr const char* absolute_name = \"%s\";\n\n", qualified)
	}
	for i, f := range fields {
		o.printf("  struct %s\n  {\n", wrappers[i])
		if e.metadata {
			o.printf("    using type = %s;\n", types[i])
		}
		o.printf("    static constexpr const char* name = \"%s\";\n  };\n\n", f.Name)
	}
	o.printf("  /// Sequence containing information for all public members\n")
	o.printf("  using public_var_info = ::std::tuple<%s>;\n\n", strings.Join(wrappers, ", "))
	o.printf("  /// Returns tuple of references to all public members\n")
	o.printf("  static constexpr decltype(auto) public_vars(%s& v) { return ::std::tie(%s); }\n\n", qualified, strings.Join(refs, ", "))
	o.printf("  /// Returns tuple of const references to all public members\n")
	o.printf("  static constexpr decltype(auto) public_vars(const %s& v) { return ::std::tie(%s); }\n", qualified, strings.Join(refs, ", "))
	o.printf("};  // struct ClassMetaInfo<%s>\n", qualified)
	e.stats.Classes++

	pass := &memberPass{
		e:       e,
		inner:   path.Push(c.Name),
		owner:   qualified,
		vars:    make(map[string]bool),
		methods: make(map[string]bool),
	}
	for _, m := range c.Members {
		if err := m.Accept(pass); err != nil {
			return err
		}
	}
	return o.err
}

// Enumeration renders e declared inside path: a name block in metadata mode,
// a stream formatter otherwise.
func (e *ClassEmitter) Enumeration(path scope.Path, en *model.Enumeration) error {
	if e.metadata {
		writeEnumMeta(e.out, path, en)
	} else {
		writeFormatter(e.out, e.cfg, path, en)
	}
	e.stats.Enumerations++
	return e.out.err
}

func (e *ClassEmitter) wrapperName(path scope.Path, c *model.Class, f *model.Field) string {
	if e.cfg.WrapperNaming == WrapperSimple {
		path = nil
	}
	return "MemberInfo__" + path.Token(c.Name, f.Name)
}

func (e *ClassEmitter) marker(owner, name, literal, what string) {
	e.out.printf("\n/// Checks if <code>%s</code> has a public %s <code>%s</code>\n", owner, what, name)
	e.out.printf("template <> struct %sClassMemberExists<%s, decltype(\"%s\"%s)> : ::std::true_type\n{};\n", e.detail, owner, name, literal)
	e.stats.Markers++
}

// memberPass is the single forward pass over a class's public members.
type memberPass struct {
	e       *ClassEmitter
	inner   scope.Path
	owner   string
	vars    map[string]bool
	methods map[string]bool
}

func (p *memberPass) VisitField(f *model.Field) error {
	if !p.vars[f.Name] {
		p.vars[f.Name] = true
		p.e.marker(p.owner, f.Name, "_var", "member variable")
	}
	return nil
}

// Overloads share a name and therefore a single marker.
func (p *memberPass) VisitMethod(m *model.Method) error {
	p.method(m.Name)
	return nil
}

func (p *memberPass) VisitOperator(op *model.Operator) error {
	p.method(op.Name)
	return nil
}

func (p *memberPass) method(name string) {
	if p.methods[name] {
		return
	}
	p.methods[name] = true
	p.e.marker(p.owner, name, "_method", "member function")
}

func (p *memberPass) VisitClass(c *model.Class) error {
	return p.e.Class(p.inner, c)
}

func (p *memberPass) VisitEnumeration(en *model.Enumeration) error {
	return p.e.Enumeration(p.inner, en)
}

func asSink(w io.Writer) *sink {
	if s, ok := w.(*sink); ok {
		return s
	}
	return &sink{w: w}
}

var _ Emitter = (*ClassEmitter)(nil)

// errUnresolved reports a field type that names neither a declaration of the
// tree nor an opaque type.
func errUnresolved(owner string, f *model.Field) error {
	return errors.Wrapf(model.ErrInvalidModel, "cannot resolve type of field %s::%s", owner, f.Name)
}
