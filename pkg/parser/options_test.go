package parser

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	o := &Options{Inputs: []string{" include/geom.hpp ", "", "./gfx/../gfx/color.hpp"}}
	require.NoError(t, o.Normalize())

	assert.Equal(t, ProviderTreeSitter, o.Provider)
	assert.Equal(t, "clang++", o.ClangPath)
	assert.Equal(t, "enum", o.LabelStyle)
	assert.Equal(t, "qualified", o.WrapperNaming)
	assert.Equal(t, []string{"include/geom.hpp", "gfx/color.hpp"}, o.Inputs)
}

func TestNormalizeInfersProvider(t *testing.T) {
	o := &Options{ModelFile: "model.yaml"}
	require.NoError(t, o.Normalize())
	assert.Equal(t, ProviderModel, o.Provider)

	o = &Options{ClangAST: "ast.json"}
	require.NoError(t, o.Normalize())
	assert.Equal(t, ProviderClang, o.Provider)
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]*Options{
		"provider":      {Provider: "gccxml"},
		"model no file": {Provider: ProviderModel},
		"label style":   {LabelStyle: "short"},
		"wrapper":       {WrapperNaming: "hashed"},
		"bad glob":      {ExcludeTypes: []string{"[geom"}},
	}
	for name, o := range cases {
		t.Run(name, func(t *testing.T) {
			err := o.Normalize()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidOptions))
			assert.Equal(t, name == "provider", errors.Is(err, ErrUnknownProvider))
		})
	}
}

func TestIncludesPrefersIncludePaths(t *testing.T) {
	o := Apply(WithInputs("a.hpp", "b.hpp"))
	assert.Equal(t, []string{"a.hpp", "b.hpp"}, o.Includes())

	o = Apply(WithInputs("src/a.hpp"), WithIncludePaths("lib/a.hpp"))
	assert.Equal(t, []string{"lib/a.hpp"}, o.Includes())
}

func TestWantsAny(t *testing.T) {
	assert.False(t, Apply().WantsAny())
	assert.True(t, Apply(WithDebug()).WantsAny())
	assert.True(t, Apply(WithOutputMeta("meta.hpp")).WantsAny())
}

func TestExcludes(t *testing.T) {
	o := Apply(
		WithExcludeTypes("*Impl", "geom::Internal*"),
		WithExcludeNamespaces("detail", "*::private"),
	)
	require.NoError(t, o.Normalize())

	assert.True(t, o.ExcludesType("geom::PointImpl"))
	assert.True(t, o.ExcludesType("geom::InternalState"))
	assert.False(t, o.ExcludesType("gfx::InternalState"))
	assert.False(t, o.ExcludesType("geom::Point"))

	assert.True(t, o.ExcludesNamespace("detail"))
	assert.True(t, o.ExcludesNamespace("geom::detail"))
	assert.True(t, o.ExcludesNamespace("geom::private"))
	assert.False(t, o.ExcludesNamespace("geom"))
	assert.False(t, o.ExcludesNamespace(""))
}
