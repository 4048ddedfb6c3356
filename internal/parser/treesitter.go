package parser

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
	"go.uber.org/zap"

	"github.com/cmmoran/aboutgen/internal/logger"
	"github.com/cmmoran/aboutgen/internal/model"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// treeSitterProvider reads headers with the tree-sitter C++ grammar. It needs
// no compiler and no include paths; declarations come from the syntax alone.
type treeSitterProvider struct {
	log *zap.Logger
}

func newTreeSitterProvider(log *zap.Logger) *treeSitterProvider {
	return &treeSitterProvider{log: log}
}

func (*treeSitterProvider) Name() string { return "treesitter" }

func (t *treeSitterProvider) Load(ctx context.Context, files []string) (*model.Root, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(cpp.GetLanguage())

	root := &model.Root{}
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return nil, errors.Wrapf(err, "read %q", f)
		}
		if err := t.extract(ctx, p, root, f, src); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (t *treeSitterProvider) extract(ctx context.Context, p *sitter.Parser, root *model.Root, file string, src []byte) error {
	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return errors.Wrapf(err, "parse %q", file)
	}
	defer tree.Close()

	top := tree.RootNode()
	if top.HasError() {
		t.log.Warn("syntax errors in header; declarations around them may be missing",
			zap.String(logger.FieldFile, file))
	}
	x := &cppExtractor{src: src, file: file, root: root, log: t.log}
	x.declarations(top, nil)
	return nil
}

// cppExtractor maps one syntax tree onto the declaration model. A nil
// namespace stands for the global scope, whose classes and enumerations are
// not part of the model.
type cppExtractor struct {
	src  []byte
	file string
	root *model.Root
	log  *zap.Logger
}

func (x *cppExtractor) text(n *sitter.Node) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(n.Content(x.src)), " ")
}

func (x *cppExtractor) declarations(list *sitter.Node, ns *model.Namespace) {
	for i := 0; i < int(list.NamedChildCount()); i++ {
		x.item(list.NamedChild(i), ns)
	}
}

func (x *cppExtractor) item(n *sitter.Node, ns *model.Namespace) {
	switch n.Type() {
	case "namespace_definition":
		x.namespace(n, ns)
	case "linkage_specification":
		if body := n.ChildByFieldName("body"); body != nil {
			if body.Type() == "declaration_list" {
				x.declarations(body, ns)
			} else {
				x.item(body, ns)
			}
		}
	case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif", "preproc_elifdef":
		x.declarations(n, ns)
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		x.scopeType(n, ns)
	case "declaration":
		// struct Point { ... } origin;
		if t := n.ChildByFieldName("type"); t != nil {
			x.scopeType(t, ns)
		}
	}
}

func (x *cppExtractor) namespace(n *sitter.Node, parent *model.Namespace) {
	nameNode := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return // anonymous namespaces have internal linkage
	}

	var target *model.Namespace
	for _, name := range x.namespaceNames(nameNode) {
		child := &model.Namespace{Name: name}
		switch {
		case target != nil:
			target.Children = append(target.Children, child)
		case parent != nil:
			parent.Children = append(parent.Children, child)
		default:
			x.root.Namespaces = append(x.root.Namespaces, child)
		}
		target = child
	}
	if target != nil {
		x.declarations(body, target)
	}
}

// namespaceNames splits "a::b::c" specifiers into their segments.
func (x *cppExtractor) namespaceNames(n *sitter.Node) []string {
	switch n.Type() {
	case "namespace_identifier", "identifier":
		return []string{x.text(n)}
	}
	var names []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		names = append(names, x.namespaceNames(n.NamedChild(i))...)
	}
	return names
}

func (x *cppExtractor) scopeType(spec *sitter.Node, ns *model.Namespace) {
	var d model.ScopeChild
	switch spec.Type() {
	case "class_specifier", "struct_specifier", "union_specifier":
		if c := x.class(spec); c != nil {
			d = c
		}
	case "enum_specifier":
		if e := x.enum(spec); e != nil {
			d = e
		}
	}
	if d == nil {
		return
	}
	if ns == nil {
		x.log.Debug("global-scope declaration skipped",
			zap.String(logger.FieldFile, x.file), zap.String(logger.FieldScope, d.SimpleName()))
		return
	}
	ns.Children = append(ns.Children, d)
}

// class returns nil for forward declarations, anonymous classes and
// specializations.
func (x *cppExtractor) class(spec *sitter.Node) *model.Class {
	name := spec.ChildByFieldName("name")
	body := spec.ChildByFieldName("body")
	if name == nil || body == nil || name.Type() != "type_identifier" {
		return nil
	}
	c := &model.Class{Name: x.text(name)}
	public := spec.Type() != "class_specifier"
	x.members(body, c, &public)
	return c
}

func (x *cppExtractor) members(list *sitter.Node, c *model.Class, public *bool) {
	for i := 0; i < int(list.NamedChildCount()); i++ {
		m := list.NamedChild(i)
		switch m.Type() {
		case "access_specifier":
			*public = strings.HasPrefix(x.text(m), "public")
			continue
		case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif", "preproc_elifdef":
			x.members(m, c, public)
			continue
		}
		if !*public {
			continue
		}
		switch m.Type() {
		case "field_declaration":
			x.fieldDeclaration(m, c)
		case "function_definition", "declaration":
			x.function(m, c)
		}
	}
}

func (x *cppExtractor) fieldDeclaration(m *sitter.Node, c *model.Class) {
	typ := m.ChildByFieldName("type")
	if typ == nil {
		return
	}
	switch typ.Type() {
	case "class_specifier", "struct_specifier", "union_specifier":
		if inner := x.class(typ); inner != nil {
			c.Members = append(c.Members, inner)
		}
	case "enum_specifier":
		if e := x.enum(typ); e != nil {
			c.Members = append(c.Members, e)
		}
	}

	static := x.hasModifier(m, "storage_class_specifier", "static")
	base := x.typeText(m, typ)
	for i := 0; i < int(m.ChildCount()); i++ {
		if m.FieldNameForChild(i) != "declarator" {
			continue
		}
		name, suffix, fn := x.unwrap(m.Child(i))
		if fn != nil {
			if !x.functionPointer(fn, base, static, c) {
				x.functionDeclarator(fn, c)
			}
			continue
		}
		if static || name == "" || base == "" {
			continue
		}
		c.Members = append(c.Members, &model.Field{
			Name: name,
			Type: model.TypeRef{Name: base + suffix},
		})
	}
}

// functionPointer records a data member declared through a parenthesized
// declarator, void (*cb)(int), as a field typed void (*)(int). It reports
// false when fn declares a member function.
func (x *cppExtractor) functionPointer(fn *sitter.Node, base string, static bool, c *model.Class) bool {
	inner := fn.ChildByFieldName("declarator")
	if inner == nil || inner.Type() != "parenthesized_declarator" || inner.NamedChildCount() == 0 {
		return false
	}
	switch inner.NamedChild(0).Type() {
	case "pointer_declarator", "reference_declarator":
	default:
		return false
	}
	name, _, _ := x.unwrap(inner)
	if static || name == "" || base == "" {
		return true
	}
	spelled := x.text(inner)
	at := strings.LastIndex(spelled, name)
	anonymous := spelled[:at] + spelled[at+len(name):]
	c.Members = append(c.Members, &model.Field{
		Name: name,
		Type: model.TypeRef{Name: base + " " + strings.Replace(x.text(fn), spelled, anonymous, 1)},
	})
	return true
}

func (x *cppExtractor) function(m *sitter.Node, c *model.Class) {
	d := m.ChildByFieldName("declarator")
	if d == nil {
		return
	}
	if d.Type() == "operator_cast" {
		c.Members = append(c.Members, &model.Operator{Name: x.castName(d)})
		return
	}
	if _, _, fn := x.unwrap(d); fn != nil {
		x.functionDeclarator(fn, c)
	}
}

func (x *cppExtractor) functionDeclarator(fn *sitter.Node, c *model.Class) {
	d := fn.ChildByFieldName("declarator")
	if d == nil {
		return
	}
	switch d.Type() {
	case "field_identifier", "identifier":
		// a constructor is named after its class
		if name := x.text(d); name != c.Name {
			c.Members = append(c.Members, &model.Method{Name: name})
		}
	case "operator_name":
		c.Members = append(c.Members, &model.Operator{Name: operatorName(x.text(d))})
	case "operator_cast":
		c.Members = append(c.Members, &model.Operator{Name: x.castName(d)})
	}
	// destructors, qualified and template names are not members worth a marker
}

// unwrap follows pointer, reference and array declarators down to the
// declared name, collecting the type suffix they add. It stops at a function
// declarator and returns it instead.
func (x *cppExtractor) unwrap(d *sitter.Node) (name, suffix string, fn *sitter.Node) {
	var ptr, dims string
	for d != nil {
		switch d.Type() {
		case "field_identifier", "identifier":
			return x.text(d), ptr + dims, nil
		case "function_declarator":
			return "", "", d
		case "pointer_declarator":
			ptr += "*"
			for i := 0; i < int(d.NamedChildCount()); i++ {
				if q := d.NamedChild(i); q.Type() == "type_qualifier" {
					ptr += " " + x.text(q)
				}
			}
			d = d.ChildByFieldName("declarator")
		case "reference_declarator":
			ptr += x.text(d.Child(0))
			d = d.NamedChild(int(d.NamedChildCount()) - 1)
		case "array_declarator":
			size := ""
			if s := d.ChildByFieldName("size"); s != nil {
				size = x.text(s)
			}
			dims = "[" + size + "]" + dims
			d = d.ChildByFieldName("declarator")
		case "parenthesized_declarator", "attributed_declarator":
			d = d.NamedChild(0)
		default:
			return "", "", nil
		}
	}
	return "", "", nil
}

// typeText spells the declared type of decl: cv-qualifiers, then the type
// specifier. Classes defined in place are referred to by name; anonymous ones
// have no usable spelling.
func (x *cppExtractor) typeText(decl, typ *sitter.Node) string {
	var spelled string
	switch typ.Type() {
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		name := typ.ChildByFieldName("name")
		if name == nil {
			return ""
		}
		spelled = x.text(name)
		if typ.ChildByFieldName("body") == nil {
			spelled = x.text(typ)
		}
	default:
		spelled = x.text(typ)
	}

	var quals []string
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		if q := decl.NamedChild(i); q.Type() == "type_qualifier" {
			switch t := x.text(q); t {
			case "const", "volatile":
				quals = append(quals, t)
			}
		}
	}
	if len(quals) == 0 {
		return spelled
	}
	return strings.Join(quals, " ") + " " + spelled
}

func (x *cppExtractor) hasModifier(decl *sitter.Node, kind, text string) bool {
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		if m := decl.NamedChild(i); m.Type() == kind && x.text(m) == text {
			return true
		}
	}
	return false
}

func (x *cppExtractor) castName(d *sitter.Node) string {
	s := x.text(d)
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

// operatorName removes the spaces a declaration may put inside an operator
// name, keeping the one a keyword operator needs: "operator ==" becomes
// "operator==", "operator  new []" becomes "operator new[]".
func operatorName(s string) string {
	rest := strings.Join(strings.Fields(strings.TrimPrefix(s, "operator")), "")
	if rest != "" && isIdentStart(rest[0]) {
		return "operator " + rest
	}
	return "operator" + rest
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func (x *cppExtractor) enum(spec *sitter.Node) *model.Enumeration {
	name := spec.ChildByFieldName("name")
	body := spec.ChildByFieldName("body")
	if name == nil || body == nil || name.Type() != "type_identifier" {
		return nil
	}
	e := &model.Enumeration{Name: x.text(name)}
	for i := 0; i < int(spec.ChildCount()); i++ {
		if t := spec.Child(i).Type(); t == "class" || t == "struct" {
			e.Scoped = true
		}
	}

	ev := &enumEval{src: x.src, values: make(map[string]int64)}
	var next int64
	for i := 0; i < int(body.NamedChildCount()); i++ {
		en := body.NamedChild(i)
		if en.Type() != "enumerator" {
			continue
		}
		labelNode := en.ChildByFieldName("name")
		if labelNode == nil {
			continue
		}
		label := x.text(labelNode)
		v := next
		if init := en.ChildByFieldName("value"); init != nil {
			got, err := ev.eval(init)
			if err != nil {
				x.log.Warn("enumerator value not evaluated; using previous value + 1",
					zap.String(logger.FieldFile, x.file),
					zap.String(logger.FieldScope, e.Name+"::"+label),
					zap.Error(err))
			} else {
				v = got
			}
		}
		ev.values[label] = v
		e.Values = append(e.Values, model.Enumerator{Label: label, Value: v})
		next = v + 1
	}
	return e
}
