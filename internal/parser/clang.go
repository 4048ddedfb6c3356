package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/cmmoran/aboutgen/internal/logger"
	"github.com/cmmoran/aboutgen/internal/model"
)

var clangDumpArgs = []string{"-x", "c++", "-Xclang", "-ast-dump=json", "-fsyntax-only"}

// clangProvider reads the JSON AST clang dumps for each input, or a single
// pre-dumped AST file.
type clangProvider struct {
	path string
	args string
	ast  string
	log  *zap.Logger
}

func newClangProvider(path, args, ast string, log *zap.Logger) *clangProvider {
	return &clangProvider{path: path, args: args, ast: ast, log: log}
}

func (*clangProvider) Name() string { return "clang" }

func (c *clangProvider) Load(ctx context.Context, files []string) (*model.Root, error) {
	root := &model.Root{}
	if c.ast != "" {
		data, err := os.ReadFile(c.ast)
		if err != nil {
			return nil, errors.Wrapf(err, "read clang AST %q", c.ast)
		}
		if err := c.decode(root, data, files); err != nil {
			return nil, errors.Wrapf(err, "clang AST %q", c.ast)
		}
		return root, nil
	}

	extra, err := shellquote.Split(c.args)
	if err != nil {
		return nil, errors.Wrapf(err, "split clang arguments %q", c.args)
	}
	for _, f := range files {
		data, err := c.dump(ctx, f, extra)
		if err != nil {
			return nil, err
		}
		if err := c.decode(root, data, files); err != nil {
			return nil, errors.Wrapf(err, "clang AST of %q", f)
		}
	}
	return root, nil
}

func (c *clangProvider) dump(ctx context.Context, file string, extra []string) ([]byte, error) {
	args := append(append(append([]string{}, clangDumpArgs...), extra...), file)
	cmd := exec.CommandContext(ctx, c.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.log.Debug("running clang", zap.String(logger.FieldFile, file), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return nil, errors.WithDetail(
			errors.Wrapf(err, "%s %s", c.path, file),
			strings.TrimSpace(stderr.String()),
		)
	}
	return stdout.Bytes(), nil
}

type clangLoc struct {
	File         string    `json:"file"`
	SpellingLoc  *clangLoc `json:"spellingLoc"`
	ExpansionLoc *clangLoc `json:"expansionLoc"`
}

type clangRange struct {
	Begin clangLoc `json:"begin"`
	End   clangLoc `json:"end"`
}

type clangType struct {
	QualType string `json:"qualType"`
}

type clangNode struct {
	Kind               string       `json:"kind"`
	Name               string       `json:"name"`
	Loc                clangLoc     `json:"loc"`
	Range              clangRange   `json:"range"`
	IsImplicit         bool         `json:"isImplicit"`
	TagUsed            string       `json:"tagUsed"`
	CompleteDefinition bool         `json:"completeDefinition"`
	Access             string       `json:"access"`
	ScopedEnumTag      string       `json:"scopedEnumTag"`
	Type               clangType    `json:"type"`
	Value              string       `json:"value"`
	Inner              []*clangNode `json:"inner"`
}

func (c *clangProvider) decode(root *model.Root, data []byte, files []string) error {
	var tu clangNode
	if err := json.Unmarshal(data, &tu); err != nil {
		return errors.Wrap(model.ErrInvalidModel, err.Error())
	}
	if tu.Kind != "TranslationUnitDecl" {
		return errors.Wrapf(model.ErrInvalidModel, "top-level node is %q, not a translation unit", tu.Kind)
	}
	w := &clangWalker{files: absAll(files), root: root, log: c.log}
	for _, n := range tu.Inner {
		w.scopeNode(n, nil)
	}
	return nil
}

// clangWalker maps clang AST nodes onto the declaration model. Clang omits a
// location's file when it equals the previously printed one, so the walker
// follows every location in document order, including skipped subtrees.
type clangWalker struct {
	files   []string
	current string
	root    *model.Root
	log     *zap.Logger
}

func (w *clangWalker) see(l *clangLoc) {
	if l == nil {
		return
	}
	if l.SpellingLoc != nil || l.ExpansionLoc != nil {
		w.see(l.SpellingLoc)
		w.see(l.ExpansionLoc)
		return
	}
	if l.File != "" {
		w.current = l.File
	}
}

// enter records n's own location and reports the file n is declared in.
func (w *clangWalker) enter(n *clangNode) string {
	w.see(&n.Loc)
	file := w.current
	w.see(&n.Range.Begin)
	w.see(&n.Range.End)
	return file
}

// skip follows the locations of a subtree that is not mapped.
func (w *clangWalker) skip(n *clangNode) {
	w.enter(n)
	for _, c := range n.Inner {
		w.skip(c)
	}
}

func (w *clangWalker) wanted(file string) bool {
	if len(w.files) == 0 || file == "" {
		return true
	}
	abs := absAll([]string{file})[0]
	for _, f := range w.files {
		if abs == f || strings.HasSuffix(f, "/"+filepath.ToSlash(filepath.Clean(file))) {
			return true
		}
	}
	return false
}

func (w *clangWalker) scopeNode(n *clangNode, ns *model.Namespace) {
	switch n.Kind {
	case "NamespaceDecl":
		file := w.enter(n)
		if n.Name == "" || !w.wanted(file) {
			w.skipInner(n)
			return
		}
		child := &model.Namespace{Name: n.Name}
		if ns == nil {
			w.root.Namespaces = append(w.root.Namespaces, child)
		} else {
			ns.Children = append(ns.Children, child)
		}
		for _, c := range n.Inner {
			w.scopeNode(c, child)
		}
	case "LinkageSpecDecl":
		w.enter(n)
		for _, c := range n.Inner {
			w.scopeNode(c, ns)
		}
	case "CXXRecordDecl", "EnumDecl":
		file := w.enter(n)
		if ns == nil || !w.wanted(file) {
			w.skipInner(n)
			return
		}
		if d := w.typeDecl(n); d != nil {
			ns.Children = append(ns.Children, d)
		}
	default:
		w.skip(n)
	}
}

func (w *clangWalker) skipInner(n *clangNode) {
	for _, c := range n.Inner {
		w.skip(c)
	}
}

// typeDecl maps an entered record or enum node; it returns nil for forward
// declarations and implicit records.
func (w *clangWalker) typeDecl(n *clangNode) model.ScopeChild {
	if n.Kind == "EnumDecl" {
		if e := w.enum(n); e != nil {
			return e
		}
		return nil
	}
	if c := w.class(n); c != nil {
		return c
	}
	return nil
}

func (w *clangWalker) class(n *clangNode) *model.Class {
	if n.Name == "" || n.IsImplicit || !n.CompleteDefinition {
		w.skipInner(n)
		return nil
	}
	c := &model.Class{Name: n.Name}
	public := n.TagUsed != "class"
	for _, m := range n.Inner {
		if m.Kind == "AccessSpecDecl" {
			w.enter(m)
			public = m.Access == "public"
			continue
		}
		if !public || (m.Access != "" && m.Access != "public") {
			w.skip(m)
			continue
		}
		w.member(m, c)
	}
	return c
}

func (w *clangWalker) member(m *clangNode, c *model.Class) {
	switch m.Kind {
	case "FieldDecl":
		w.skip(m)
		if m.Name != "" && m.Type.QualType != "" {
			c.Members = append(c.Members, &model.Field{Name: m.Name, Type: model.TypeRef{Name: m.Type.QualType}})
		}
	case "CXXMethodDecl":
		w.skip(m)
		if m.IsImplicit {
			return
		}
		if strings.HasPrefix(m.Name, "operator") && !isIdentTail(m.Name[len("operator"):]) {
			c.Members = append(c.Members, &model.Operator{Name: operatorName(m.Name)})
			return
		}
		c.Members = append(c.Members, &model.Method{Name: m.Name})
	case "CXXConversionDecl":
		w.skip(m)
		if !m.IsImplicit {
			c.Members = append(c.Members, &model.Operator{Name: m.Name})
		}
	case "CXXRecordDecl", "EnumDecl":
		w.enter(m)
		if d := w.typeDecl(m); d != nil {
			c.Members = append(c.Members, d.(model.Member))
		}
	default:
		// constructors, destructors, static data members, templates
		w.skip(m)
	}
}

// isIdentTail reports whether s continues an identifier, as in "operatorCount".
func isIdentTail(s string) bool {
	return s != "" && (isIdentStart(s[0]) || (s[0] >= '0' && s[0] <= '9'))
}

func (w *clangWalker) enum(n *clangNode) *model.Enumeration {
	if n.Name == "" {
		w.skipInner(n)
		return nil
	}
	e := &model.Enumeration{Name: n.Name, Scoped: n.ScopedEnumTag != ""}
	var next int64
	for _, k := range n.Inner {
		w.skip(k)
		if k.Kind != "EnumConstantDecl" {
			continue
		}
		v := next
		if got, ok := constantValue(k); ok {
			v = got
		}
		e.Values = append(e.Values, model.Enumerator{Label: k.Name, Value: v})
		next = v + 1
	}
	if len(e.Values) == 0 && len(n.Inner) == 0 {
		// "enum class E : int;" declares without defining
		return nil
	}
	return e
}

// constantValue finds the value clang folded for an explicit initializer.
func constantValue(n *clangNode) (int64, bool) {
	for _, c := range n.Inner {
		if c.Kind == "ConstantExpr" && c.Value != "" {
			if v, err := strconv.ParseInt(c.Value, 10, 64); err == nil {
				return v, true
			}
			if v, err := strconv.ParseUint(c.Value, 10, 64); err == nil {
				return int64(v), true
			}
		}
		if v, ok := constantValue(c); ok {
			return v, true
		}
	}
	return 0, false
}

func absAll(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		out = append(out, filepath.ToSlash(abs))
	}
	return out
}
