package parser

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/cmmoran/aboutgen/internal/model"
)

// Member kinds of a serialized model.
const (
	KindNamespace = "namespace"
	KindClass     = "class"
	KindEnum      = "enum"
	KindField     = "field"
	KindMethod    = "method"
	KindOperator  = "operator"
)

// ModelDocument is the serialized form of a declaration tree.
type ModelDocument struct {
	Namespaces []DeclDoc `json:"namespaces" yaml:"namespaces" toml:"namespaces"`
}

// DeclDoc is one serialized declaration. Namespaces and classes list their
// contents under Members; Kind defaults to "namespace" at the top level.
type DeclDoc struct {
	Kind    string     `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Name    string     `json:"name" yaml:"name" toml:"name"`
	Type    string     `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Scoped  bool       `json:"scoped,omitempty" yaml:"scoped,omitempty" toml:"scoped,omitempty"`
	Values  []ValueDoc `json:"values,omitempty" yaml:"values,omitempty" toml:"values,omitempty"`
	Members []DeclDoc  `json:"members,omitempty" yaml:"members,omitempty" toml:"members,omitempty"`
}

type ValueDoc struct {
	Label string `json:"label" yaml:"label" toml:"label"`
	Value int64  `json:"value" yaml:"value" toml:"value"`
}

// modelFileProvider loads a declaration tree written by hand or by another
// tool.
type modelFileProvider struct {
	path string
}

func newModelFileProvider(path string) *modelFileProvider {
	return &modelFileProvider{path: path}
}

func (*modelFileProvider) Name() string { return "model" }

func (m *modelFileProvider) Load(_ context.Context, _ []string) (*model.Root, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read model %q", m.path)
	}
	doc, err := DecodeModel(filepath.Ext(m.path), data)
	if err != nil {
		return nil, errors.Wrapf(err, "model %q", m.path)
	}
	return doc.Root()
}

// DecodeModel unmarshals data in the format named by ext: .yaml, .yml,
// .json or .toml.
func DecodeModel(ext string, data []byte) (*ModelDocument, error) {
	var doc ModelDocument
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	default:
		return nil, errors.WithHint(
			errors.Wrapf(model.ErrInvalidModel, "unsupported model format %q", ext),
			"use .yaml, .yml, .json or .toml",
		)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode"), model.ErrInvalidModel)
	}
	return &doc, nil
}

// Root converts the document into a declaration tree. Field types stay
// unresolved type names.
func (d *ModelDocument) Root() (*model.Root, error) {
	root := &model.Root{}
	for _, n := range d.Namespaces {
		if n.Kind != "" && n.Kind != KindNamespace {
			return nil, errors.Wrapf(model.ErrInvalidModel, "top-level %q is a %s, not a namespace", n.Name, n.Kind)
		}
		ns, err := n.namespace()
		if err != nil {
			return nil, err
		}
		root.Namespaces = append(root.Namespaces, ns)
	}
	return root, nil
}

func (d DeclDoc) namespace() (*model.Namespace, error) {
	ns := &model.Namespace{Name: d.Name}
	for _, c := range d.Members {
		var child model.ScopeChild
		switch c.Kind {
		case KindNamespace:
			inner, err := c.namespace()
			if err != nil {
				return nil, err
			}
			child = inner
		case KindClass:
			cls, err := c.class()
			if err != nil {
				return nil, err
			}
			child = cls
		case KindEnum:
			child = c.enum()
		default:
			return nil, c.unknown(d.Name, "namespace", KindNamespace, KindClass, KindEnum)
		}
		ns.Children = append(ns.Children, child)
	}
	return ns, nil
}

func (d DeclDoc) class() (*model.Class, error) {
	c := &model.Class{Name: d.Name}
	for _, m := range d.Members {
		var member model.Member
		switch m.Kind {
		case KindField:
			member = &model.Field{Name: m.Name, Type: model.TypeRef{Name: m.Type}}
		case KindMethod:
			member = &model.Method{Name: m.Name}
		case KindOperator:
			member = &model.Operator{Name: m.Name}
		case KindClass:
			inner, err := m.class()
			if err != nil {
				return nil, err
			}
			member = inner
		case KindEnum:
			member = m.enum()
		default:
			return nil, m.unknown(d.Name, "class", KindField, KindMethod, KindOperator, KindClass, KindEnum)
		}
		c.Members = append(c.Members, member)
	}
	return c, nil
}

func (d DeclDoc) enum() *model.Enumeration {
	e := &model.Enumeration{Name: d.Name, Scoped: d.Scoped}
	for _, v := range d.Values {
		e.Values = append(e.Values, model.Enumerator{Label: v.Label, Value: v.Value})
	}
	return e
}

func (d DeclDoc) unknown(owner, ownerKind string, allowed ...string) error {
	return errors.WithHintf(
		errors.Wrapf(model.ErrInvalidModel, "%s %q: member %q has unknown kind %q", ownerKind, owner, d.Name, d.Kind),
		"a %s member is one of %s", ownerKind, strings.Join(allowed, ", "),
	)
}
