package model

// Declaration is one node of a parsed declaration tree. The set of
// implementations is closed: Namespace, Class, Field, Method, Operator and
// Enumeration.
type Declaration interface {
	SimpleName() string
	declaration()
}

// Member is a public member of a Class. Every member kind has a case in
// MemberVisitor; adding a kind without extending the visitor does not build.
type Member interface {
	Declaration
	Accept(v MemberVisitor) error
}

// ScopeChild is a declaration a Namespace can own.
type ScopeChild interface {
	Declaration
	AcceptScope(v ScopeVisitor) error
}

// TypeDecl is a declaration a Field type may refer to.
type TypeDecl interface {
	Declaration
	typeDecl()
}

// MemberVisitor dispatches over every member kind of a Class.
type MemberVisitor interface {
	VisitField(f *Field) error
	VisitMethod(m *Method) error
	VisitOperator(o *Operator) error
	VisitClass(c *Class) error
	VisitEnumeration(e *Enumeration) error
}

// ScopeVisitor dispatches over every declaration kind a Namespace can own.
type ScopeVisitor interface {
	VisitNamespace(n *Namespace) error
	VisitClass(c *Class) error
	VisitEnumeration(e *Enumeration) error
}

// Root is the top of a declaration tree; it owns only namespaces.
type Root struct {
	Namespaces []*Namespace
}

type Namespace struct {
	Name     string
	Children []ScopeChild // classes, enumerations and nested namespaces in source order
}

type Class struct {
	Name    string
	Members []Member // public members only, in declaration order
}

type Field struct {
	Name string
	Type TypeRef
}

// TypeRef is the type of a Field: either a declaration in the same tree, or an
// opaque type name when the type is not declared there.
type TypeRef struct {
	Decl TypeDecl
	Name string
}

// Method carries presence only; signatures are not modeled.
type Method struct {
	Name string
}

// Operator is a member operator, named by its spelling ("operator==").
type Operator struct {
	Name string
}

type Enumeration struct {
	Name   string
	Scoped bool // enum class
	Values []Enumerator
}

// Enumerator is one (label, underlying value) pair. Labels are unique within
// an enumeration; values need not be unique or contiguous.
type Enumerator struct {
	Label string
	Value int64
}

func (n *Namespace) SimpleName() string   { return n.Name }
func (c *Class) SimpleName() string       { return c.Name }
func (f *Field) SimpleName() string       { return f.Name }
func (m *Method) SimpleName() string      { return m.Name }
func (o *Operator) SimpleName() string    { return o.Name }
func (e *Enumeration) SimpleName() string { return e.Name }

func (*Namespace) declaration()   {}
func (*Class) declaration()       {}
func (*Field) declaration()       {}
func (*Method) declaration()      {}
func (*Operator) declaration()    {}
func (*Enumeration) declaration() {}

func (*Class) typeDecl()       {}
func (*Enumeration) typeDecl() {}

func (f *Field) Accept(v MemberVisitor) error       { return v.VisitField(f) }
func (m *Method) Accept(v MemberVisitor) error      { return v.VisitMethod(m) }
func (o *Operator) Accept(v MemberVisitor) error    { return v.VisitOperator(o) }
func (c *Class) Accept(v MemberVisitor) error       { return v.VisitClass(c) }
func (e *Enumeration) Accept(v MemberVisitor) error { return v.VisitEnumeration(e) }

func (n *Namespace) AcceptScope(v ScopeVisitor) error   { return v.VisitNamespace(n) }
func (c *Class) AcceptScope(v ScopeVisitor) error       { return v.VisitClass(c) }
func (e *Enumeration) AcceptScope(v ScopeVisitor) error { return v.VisitEnumeration(e) }

// Fields returns the Field members of c in declaration order.
func (c *Class) Fields() []*Field {
	out := make([]*Field, 0, len(c.Members))
	for _, m := range c.Members {
		if f, ok := m.(*Field); ok {
			out = append(out, f)
		}
	}
	return out
}

// Namespace returns the top-level namespace called name, or nil.
func (r *Root) Namespace(name string) *Namespace {
	for _, n := range r.Namespaces {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Namespace returns the nested namespace called name, or nil.
func (n *Namespace) Namespace(name string) *Namespace {
	for _, c := range n.Children {
		if ns, ok := c.(*Namespace); ok && ns.Name == name {
			return ns
		}
	}
	return nil
}
