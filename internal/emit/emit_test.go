package emit

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/aboutgen/internal/model"
)

func geomModel() *model.Root {
	return &model.Root{Namespaces: []*model.Namespace{{
		Name: "geom",
		Children: []model.ScopeChild{
			&model.Class{Name: "Point", Members: []model.Member{
				&model.Field{Name: "x", Type: model.TypeRef{Name: "int"}},
				&model.Field{Name: "y", Type: model.TypeRef{Name: "int"}},
			}},
		},
	}}}
}

func gfxModel() *model.Root {
	return &model.Root{Namespaces: []*model.Namespace{{
		Name: "gfx",
		Children: []model.ScopeChild{
			&model.Enumeration{Name: "Color", Scoped: true, Values: []model.Enumerator{
				{Label: "RED", Value: 0},
				{Label: "GREEN", Value: 1},
				{Label: "BLUE", Value: 2},
			}},
		},
	}}}
}

// nestedModel is ns { Outer { Inner { enum Color { RED, GREEN } } } }.
func nestedModel() *model.Root {
	color := &model.Enumeration{Name: "Color", Values: []model.Enumerator{{Label: "RED"}, {Label: "GREEN", Value: 1}}}
	inner := &model.Class{Name: "Inner", Members: []model.Member{color}}
	outer := &model.Class{Name: "Outer", Members: []model.Member{inner}}
	return &model.Root{Namespaces: []*model.Namespace{{Name: "ns", Children: []model.ScopeChild{outer}}}}
}

func render(t *testing.T, root *model.Root, doc Document, cfg Config) string {
	t.Helper()
	out, _, err := NewAssembler(cfg, nil).Render(root, doc)
	require.NoError(t, err)
	return string(out)
}

func TestGuardToken(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{target: "foo-bar.hpp", want: GuardPrefix + "FOO_BAR"},
		{target: "include/gen/foo-bar.hpp", want: GuardPrefix + "FOO_BAR"},
		{target: `C:\gen\my.meta.hpp`, want: GuardPrefix + "MY_META"},
		{target: "noext", want: GuardPrefix + "NOEXT"},
		{target: "mixed-Case.h", want: GuardPrefix + "MIXED_CASE"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got := GuardToken(tt.target)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, GuardToken(tt.target))
		})
	}
}

func TestGolden(t *testing.T) {
	tests := []struct {
		name   string
		root   *model.Root
		doc    Document
		golden string
	}{
		{
			name:   "reflect geom point",
			root:   geomModel(),
			doc:    Document{Kind: KindReflect, Target: "geom.hpp", Includes: []string{"geom.hpp"}},
			golden: "geom_point.reflect.hpp",
		},
		{
			name:   "enum ostream gfx color",
			root:   gfxModel(),
			doc:    Document{Kind: KindEnumOstream, Target: "out/gfx-colors.hpp"},
			golden: "gfx_color.enum-ostream.hpp",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expected, err := os.ReadFile(filepath.Join("testdata", tt.golden))
			require.NoError(t, err)

			got := render(t, tt.root, tt.doc, Config{})
			diff := cmp.Diff(string(expected), got)
			require.Empty(t, diff, "golden mismatch (-want +got):\n%s", diff)
		})
	}
}

func TestReflectFieldCounts(t *testing.T) {
	for n := 0; n <= 4; n++ {
		members := make([]model.Member, 0, n)
		refs := make([]string, 0, n)
		for i := 0; i < n; i++ {
			name := string(rune('a' + i))
			members = append(members, &model.Field{Name: name, Type: model.TypeRef{Name: "int"}})
			refs = append(refs, "v."+name)
		}
		root := &model.Root{Namespaces: []*model.Namespace{{
			Name:     "ns",
			Children: []model.ScopeChild{&model.Class{Name: "C", Members: members}},
		}}}

		out := render(t, root, Document{Kind: KindReflect, Target: "c.hpp"}, Config{})
		tie := "::std::tie(" + strings.Join(refs, ", ") + ")"

		assert.Equal(t, n, strings.Count(out, "  struct MemberInfo__"), "wrappers for %d fields", n)
		assert.Equal(t, 1, strings.Count(out, "public_vars(ns::C& v) { return "+tie+"; }"))
		assert.Equal(t, 1, strings.Count(out, "public_vars(const ns::C& v) { return "+tie+"; }"))
		assert.Equal(t, n, strings.Count(out, "_var)> : ::std::true_type"))
	}
}

func TestZeroFieldClassStillHasAccessors(t *testing.T) {
	root := &model.Root{Namespaces: []*model.Namespace{{
		Name:     "ns",
		Children: []model.ScopeChild{&model.Class{Name: "Empty"}},
	}}}
	out := render(t, root, Document{Kind: KindReflect, Target: "e.hpp"}, Config{})

	assert.Contains(t, out, "using public_var_info = ::std::tuple<>;")
	assert.Equal(t, 2, strings.Count(out, "{ return ::std::tie(); }"))
}

func TestMemberExistenceMarkers(t *testing.T) {
	root := &model.Root{Namespaces: []*model.Namespace{{
		Name: "ns",
		Children: []model.ScopeChild{&model.Class{Name: "Widget", Members: []model.Member{
			&model.Field{Name: "size", Type: model.TypeRef{Name: "int"}},
			&model.Method{Name: "draw"},
			&model.Method{Name: "draw"},
			&model.Method{Name: "size"},
			&model.Operator{Name: "operator=="},
		}}},
	}}}
	out, stats, err := NewAssembler(Config{}, nil).Render(root, Document{Kind: KindReflect, Target: "w.hpp"})
	require.NoError(t, err)
	text := string(out)

	assert.Equal(t, 3, strings.Count(text, "_method)> : ::std::true_type"))
	assert.Equal(t, 1, strings.Count(text, `detail::ClassMemberExists<ns::Widget, decltype("draw"_method)>`))
	assert.Contains(t, text, `detail::ClassMemberExists<ns::Widget, decltype("operator=="_method)>`)
	assert.Contains(t, text, `detail::ClassMemberExists<ns::Widget, decltype("size"_var)>`)
	assert.Contains(t, text, `detail::ClassMemberExists<ns::Widget, decltype("size"_method)>`)
	assert.Equal(t, 4, stats.Markers)
}

func TestNestedRecursionVisitsEachDeclarationOnce(t *testing.T) {
	for _, kind := range []Kind{KindReflect, KindMeta} {
		t.Run(kind.String(), func(t *testing.T) {
			out, stats, err := NewAssembler(Config{}, nil).Render(nestedModel(), Document{Kind: kind, Target: "n.hpp"})
			require.NoError(t, err)
			text := string(out)

			assert.Equal(t, 1, strings.Count(text, "ClassMetaInfo<ns::Outer>\n{"))
			assert.Equal(t, 1, strings.Count(text, "ClassMetaInfo<ns::Outer::Inner>\n{"))
			assert.Equal(t, 2, stats.Classes)
			assert.Equal(t, 1, stats.Enumerations)
			if kind == KindReflect {
				assert.Equal(t, 1, strings.Count(text, "operator<<(::std::ostream& os, const ns::Outer::Inner::Color e)"))
				assert.Equal(t, 2, strings.Count(text, "  if (e == ns::Outer::Inner::Color::"))
				assert.Equal(t, 1, strings.Count(text, `return os << "INVALID <<Color>>";`))
			} else {
				assert.Contains(t, text, "ClassMetaInfo<ns::Outer::Inner::Color>\n{")
				assert.NotContains(t, text, "operator<<")
			}
		})
	}
}

func TestEnumOstreamFindsNestedEnumerationsOnly(t *testing.T) {
	out, stats, err := NewAssembler(Config{}, nil).Render(nestedModel(), Document{Kind: KindEnumOstream, Target: "n.hpp"})
	require.NoError(t, err)
	text := string(out)

	assert.NotContains(t, text, "ClassMetaInfo")
	assert.Equal(t, 1, stats.Enumerations)
	assert.Equal(t, 0, stats.Classes)
	assert.Contains(t, text, `return os << "Color::RED";`)
}

func TestEnumBranchesFollowDeclarationOrder(t *testing.T) {
	en := &model.Enumeration{Name: "Mode", Values: []model.Enumerator{
		{Label: "B", Value: 1}, {Label: "A", Value: 1}, {Label: "C", Value: -3},
	}}
	root := &model.Root{Namespaces: []*model.Namespace{{Name: "io", Children: []model.ScopeChild{en}}}}
	text := render(t, root, Document{Kind: KindEnumOstream, Target: "m.hpp"}, Config{LabelStyle: LabelFull})

	b := strings.Index(text, `"io::Mode::B"`)
	a := strings.Index(text, `"io::Mode::A"`)
	c := strings.Index(text, `"io::Mode::C"`)
	fallback := strings.Index(text, `"INVALID <<Mode>>"`)
	require.True(t, b > 0 && a > b && c > a && fallback > c, "unexpected branch order:\n%s", text)
}

func TestEmptyEnumerationHasOnlyFallback(t *testing.T) {
	root := &model.Root{Namespaces: []*model.Namespace{{Name: "ns", Children: []model.ScopeChild{&model.Enumeration{Name: "None"}}}}}
	text := render(t, root, Document{Kind: KindEnumOstream, Target: "x.hpp"}, Config{})

	assert.NotContains(t, text, "  if (e ==")
	assert.Contains(t, text, `return os << "INVALID <<None>>";`)
}

func TestMetadataTypesAndNames(t *testing.T) {
	point := &model.Class{Name: "Point", Members: []model.Member{
		&model.Field{Name: "x", Type: model.TypeRef{Name: "float"}},
	}}
	kind := &model.Enumeration{Name: "Kind", Values: []model.Enumerator{{Label: "A"}}}
	shape := &model.Class{Name: "Shape", Members: []model.Member{
		&model.Field{Name: "origin", Type: model.TypeRef{Decl: point, Name: "Point"}},
		&model.Field{Name: "kind", Type: model.TypeRef{Decl: kind}},
		&model.Field{Name: "label", Type: model.TypeRef{Name: "const char*"}},
	}}
	root := &model.Root{Namespaces: []*model.Namespace{
		{Name: "geom", Children: []model.ScopeChild{point}},
		{Name: "draw", Children: []model.ScopeChild{kind, shape}},
	}}
	text := render(t, root, Document{Kind: KindMeta, Target: "meta.hpp"}, Config{})

	assert.Contains(t, text, "namespace about\n{\nnamespace detail\n{\n")
	assert.Contains(t, text, "}  // namespace detail\n}  // namespace about\n")
	assert.Contains(t, text, "template <> struct ClassMetaInfo<draw::Shape>")
	assert.Contains(t, text, `static constexpr const char* name = "Shape";`)
	assert.Contains(t, text, `static constexpr const char* absolute_name = "draw::Shape";`)
	assert.Contains(t, text, "    using type = geom::Point;\n    static constexpr const char* name = \"origin\";")
	assert.Contains(t, text, "    using type = draw::Kind;\n")
	assert.Contains(t, text, "    using type = const char*;\n")
	assert.Contains(t, text, "    using type = float;\n")
	assert.Contains(t, text, `static constexpr const char* name = "Kind";`)
	assert.NotContains(t, text, "detail::ClassMetaInfo")
}

func TestMetadataUnresolvableFieldTypeIsFatal(t *testing.T) {
	stray := &model.Class{Name: "Stray"}
	root := &model.Root{Namespaces: []*model.Namespace{{Name: "ns", Children: []model.ScopeChild{
		&model.Class{Name: "Holder", Members: []model.Member{
			&model.Field{Name: "s", Type: model.TypeRef{Decl: stray}},
		}},
	}}}}

	out, _, err := NewAssembler(Config{}, nil).Render(root, Document{Kind: KindMeta, Target: "m.hpp"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidModel))
	assert.Nil(t, out)

	root.Namespaces[0].Children[0].(*model.Class).Members[0] = &model.Field{Name: "s"}
	_, _, err = NewAssembler(Config{}, nil).Render(root, Document{Kind: KindMeta, Target: "m.hpp"})
	assert.True(t, errors.Is(err, model.ErrInvalidModel))
}

func TestWrapperNaming(t *testing.T) {
	// Two classes called Node under different outer classes.
	mk := func(outer string) *model.Class {
		return &model.Class{Name: outer, Members: []model.Member{
			&model.Class{Name: "Node", Members: []model.Member{&model.Field{Name: "id", Type: model.TypeRef{Name: "int"}}}},
		}}
	}
	root := &model.Root{Namespaces: []*model.Namespace{{Name: "ns", Children: []model.ScopeChild{mk("List"), mk("Tree")}}}}

	qualified := render(t, root, Document{Kind: KindReflect, Target: "q.hpp"}, Config{WrapperNaming: WrapperQualified})
	assert.Contains(t, qualified, "struct MemberInfo__ns__List__Node__id\n")
	assert.Contains(t, qualified, "struct MemberInfo__ns__Tree__Node__id\n")

	simple := render(t, root, Document{Kind: KindReflect, Target: "s.hpp"}, Config{WrapperNaming: WrapperSimple})
	assert.Equal(t, 2, strings.Count(simple, "struct MemberInfo__Node__id\n"))
}

func TestRenderIsIdempotent(t *testing.T) {
	for _, kind := range Kinds {
		a := render(t, nestedModel(), Document{Kind: kind, Target: "same.hpp", Includes: []string{"a.hpp", "b.hpp"}}, Config{})
		b := render(t, nestedModel(), Document{Kind: kind, Target: "same.hpp", Includes: []string{"a.hpp", "b.hpp"}}, Config{})
		assert.Equal(t, a, b, kind.String())
	}
}

func TestIncludesEchoedInOrder(t *testing.T) {
	text := render(t, geomModel(), Document{Kind: KindMeta, Target: "x.hpp", Includes: []string{"b.hpp", "a/a.hpp"}}, Config{})
	assert.Contains(t, text, "// USER LIBRARIES\n#include \"b.hpp\"\n#include \"a/a.hpp\"\n\nnamespace about\n")
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("disk full")
	}
	w.after--
	return len(p), nil
}

func TestSinkErrorAborts(t *testing.T) {
	_, err := NewAssembler(Config{}, nil).Assemble(&failingWriter{after: 3}, geomModel(), Document{Kind: KindReflect, Target: "g.hpp"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSink))
}

func TestAssembleRejectsUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewAssembler(Config{}, nil).Assemble(&buf, geomModel(), Document{Kind: Kind(42)})
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestParseFlavors(t *testing.T) {
	k, err := ParseKind("ENUM-OSTREAM")
	require.NoError(t, err)
	assert.Equal(t, KindEnumOstream, k)
	_, err = ParseKind("header")
	assert.Error(t, err)

	s, err := ParseLabelStyle("full")
	require.NoError(t, err)
	assert.Equal(t, LabelFull, s)
	_, err = ParseLabelStyle("short")
	assert.Error(t, err)

	n, err := ParseWrapperNaming("")
	require.NoError(t, err)
	assert.Equal(t, WrapperQualified, n)
	_, err = ParseWrapperNaming("flat")
	assert.Error(t, err)

	assert.Equal(t, "enum-ostream.hpp", KindEnumOstream.DefaultTarget())
	assert.Equal(t, "ENUM_OSTREAM_HPP", KindEnumOstream.guardSuffix())
}

func TestSinkWriteLatchesFirstError(t *testing.T) {
	w := &failingWriter{after: 1}
	s := &sink{w: w}

	n, err := s.Write([]byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.Write([]byte("lost"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSink))

	w.after = 10
	n, err = s.Write([]byte("after"))
	assert.Zero(t, n)
	assert.Equal(t, s.err, err)
	assert.Equal(t, int64(2), s.n)
}

func TestFormattersGuardedAcrossArtifacts(t *testing.T) {
	root := nestedModel()
	root.Namespaces[0].Children = append(root.Namespaces[0].Children, gfxModel().Namespaces[0].Children[0])
	guards := []string{"ABOUT_ENUM_OSTREAM__ns__Outer__Inner__Color", "ABOUT_ENUM_OSTREAM__ns__Color"}

	for _, kind := range []Kind{KindReflect, KindEnumOstream} {
		t.Run(kind.String(), func(t *testing.T) {
			text := render(t, root, Document{Kind: kind, Target: kind.DefaultTarget()}, Config{})
			assert.Equal(t, len(guards), strings.Count(text, "inline ::std::ostream& operator<<"))
			for _, g := range guards {
				assert.Equal(t, 1, strings.Count(text, "#ifndef "+g+"\n#define "+g+"\ninline ::std::ostream& operator<<"), g)
				assert.Equal(t, 1, strings.Count(text, "}\n#endif  // "+g+"\n"), g)
			}
		})
	}
}
