package model

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/aboutgen/internal/scope"
)

func sampleTree() (*Root, *Class, *Enumeration) {
	color := &Enumeration{Name: "Color", Values: []Enumerator{{Label: "RED"}, {Label: "GREEN", Value: 1}}}
	inner := &Class{Name: "Inner", Members: []Member{color, &Method{Name: "paint"}}}
	outer := &Class{Name: "Outer", Members: []Member{
		&Field{Name: "in", Type: TypeRef{Decl: inner}},
		&Operator{Name: "operator=="},
		inner,
	}}
	root := &Root{Namespaces: []*Namespace{{
		Name: "outer_ns",
		Children: []ScopeChild{
			outer,
			&Namespace{Name: "deep", Children: []ScopeChild{&Enumeration{Name: "Flag"}}},
		},
	}}}
	return root, inner, color
}

func TestWalkOrderAndPaths(t *testing.T) {
	root, _, _ := sampleTree()

	var got []string
	err := Walk(root, func(path scope.Path, d Declaration) error {
		got = append(got, path.Qualify(d.SimpleName()))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"outer_ns",
		"outer_ns::Outer",
		"outer_ns::Outer::in",
		"outer_ns::Outer::operator==",
		"outer_ns::Outer::Inner",
		"outer_ns::Outer::Inner::Color",
		"outer_ns::Outer::Inner::paint",
		"outer_ns::deep",
		"outer_ns::deep::Flag",
	}, got)
}

func TestWalkStopsOnError(t *testing.T) {
	root, _, _ := sampleTree()
	stop := errors.New("stop")
	calls := 0
	err := Walk(root, func(scope.Path, Declaration) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, calls)
}

func TestIndexQualifiedName(t *testing.T) {
	root, inner, color := sampleTree()
	idx, err := NewIndex(root)
	require.NoError(t, err)

	name, ok := idx.QualifiedName(inner)
	require.True(t, ok)
	assert.Equal(t, "outer_ns::Outer::Inner", name)

	name, ok = idx.QualifiedName(color)
	require.True(t, ok)
	assert.Equal(t, "outer_ns::Outer::Inner::Color", name)

	_, ok = idx.QualifiedName(&Class{Name: "Elsewhere"})
	assert.False(t, ok)
	assert.Equal(t, 9, idx.Len())
}

func TestValidate(t *testing.T) {
	root, _, _ := sampleTree()
	require.NoError(t, Validate(root))

	tests := []struct {
		name string
		root *Root
	}{
		{name: "nil root", root: nil},
		{name: "nil namespace", root: &Root{Namespaces: []*Namespace{nil}}},
		{name: "unnamed class", root: &Root{Namespaces: []*Namespace{{Name: "ns", Children: []ScopeChild{&Class{}}}}}},
		{name: "nil member", root: &Root{Namespaces: []*Namespace{{Name: "ns", Children: []ScopeChild{&Class{Name: "C", Members: []Member{nil}}}}}}},
		{name: "typed nil class", root: &Root{Namespaces: []*Namespace{{Name: "ns", Children: []ScopeChild{(*Class)(nil)}}}}},
		{name: "untyped field", root: &Root{Namespaces: []*Namespace{{Name: "ns", Children: []ScopeChild{
			&Class{Name: "C", Members: []Member{&Field{Name: "f"}}},
		}}}}},
		{name: "field refers outside tree", root: &Root{Namespaces: []*Namespace{{Name: "ns", Children: []ScopeChild{
			&Class{Name: "C", Members: []Member{&Field{Name: "f", Type: TypeRef{Decl: &Class{Name: "Ghost"}}}}},
		}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.root)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidModel), "got %v", err)
		})
	}
}

type countingVisitor struct {
	fields, methods, operators, classes, enums int
}

func (c *countingVisitor) VisitField(*Field) error             { c.fields++; return nil }
func (c *countingVisitor) VisitMethod(*Method) error           { c.methods++; return nil }
func (c *countingVisitor) VisitOperator(*Operator) error       { c.operators++; return nil }
func (c *countingVisitor) VisitClass(*Class) error             { c.classes++; return nil }
func (c *countingVisitor) VisitEnumeration(*Enumeration) error { c.enums++; return nil }

func TestMemberDispatch(t *testing.T) {
	c := &Class{Name: "C", Members: []Member{
		&Field{Name: "a", Type: TypeRef{Name: "int"}},
		&Field{Name: "b", Type: TypeRef{Name: "int"}},
		&Method{Name: "m"},
		&Operator{Name: "operator()"},
		&Class{Name: "N"},
		&Enumeration{Name: "E"},
	}}
	v := &countingVisitor{}
	for _, m := range c.Members {
		require.NoError(t, m.Accept(v))
	}
	assert.Equal(t, countingVisitor{fields: 2, methods: 1, operators: 1, classes: 1, enums: 1}, *v)
	assert.Len(t, c.Fields(), 2)
}

func TestNamespaceLookup(t *testing.T) {
	root, _, _ := sampleTree()
	ns := root.Namespace("outer_ns")
	require.NotNil(t, ns)
	assert.NotNil(t, ns.Namespace("deep"))
	assert.Nil(t, ns.Namespace("shallow"))
	assert.Nil(t, root.Namespace("missing"))
}
