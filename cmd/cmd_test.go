package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/aboutgen/internal/version"
	"github.com/cmmoran/aboutgen/pkg/parser"
)

func TestOptionsFromFlags(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	c := NewGenerateCommand()
	require.NoError(t, c.ParseFlags([]string{
		"-i", "include/a.hpp,include/b.hpp",
		"--model", "model.yaml",
		"--reflect", "-",
		"--label-style", "full",
		"--exclude-types", "*Impl",
		"--no-gitignore",
	}))

	o, err := options(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"include/a.hpp", "include/b.hpp"}, o.Inputs)
	assert.Equal(t, "model.yaml", o.ModelFile)
	assert.Empty(t, o.Provider)
	assert.Equal(t, "-", o.OutputReflect)
	assert.Equal(t, "full", o.LabelStyle)
	assert.Equal(t, "qualified", o.WrapperNaming)
	assert.Equal(t, "clang++", o.ClangPath)
	assert.Equal(t, []string{"*Impl"}, o.ExcludeTypes)
	assert.False(t, o.RespectGitignore)

	require.NoError(t, o.Normalize())
	assert.Equal(t, parser.ProviderModel, o.Provider)
}

func TestOptionsFromConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(bytes.NewBufferString(`
generate:
  inputs: [include]
  output_meta: gen/meta.hpp
  wrapper_naming: simple
  manifest: aboutgen.yaml
`)))

	c := NewCheckCommand()
	require.NoError(t, c.ParseFlags([]string{"--wrapper-naming", "qualified"}))

	o, err := options(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"include"}, o.Inputs)
	assert.Equal(t, "gen/meta.hpp", o.OutputMeta)
	assert.Equal(t, "aboutgen.yaml", o.Manifest)
	assert.Equal(t, "qualified", o.WrapperNaming, "flags win over config")
	assert.True(t, o.RespectGitignore)
}

func TestCount(t *testing.T) {
	assert.Equal(t, "1 class", count(1, "class"))
	assert.Equal(t, "2 classes", count(2, "class"))
	assert.Equal(t, "0 enumerations", count(0, "enumeration"))
	assert.Equal(t, "12 bytes", count(12, "byte"))
}

func TestWatchSet(t *testing.T) {
	dir := t.TempDir()
	include := filepath.Join(dir, "include")
	require.NoError(t, os.MkdirAll(filepath.Join(include, "detail"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(include, ".cache"), 0o755))
	model := filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(model, nil, 0o644))
	out := filepath.Join(include, "reflect.hpp")

	set, err := newWatchSet(&parser.Options{
		Inputs:        []string{include},
		ModelFile:     model,
		OutputReflect: out,
		OutputMeta:    "-",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{include, filepath.Join(include, "detail"), dir}, set.dirs)

	tests := []struct {
		name string
		want bool
	}{
		{filepath.Join(include, "geom.hpp"), true},
		{filepath.Join(include, "detail", "impl.h"), true},
		{filepath.Join(include, "notes.txt"), false},
		{filepath.Join(include, ".cache", "x.hpp"), false},
		{out, false},
		{model, true},
		{filepath.Join(dir, "other.yaml"), false},
		{filepath.Join(dir, "top.hpp"), false},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.name), func(t *testing.T) {
			assert.Equal(t, tt.want, set.relevant(tt.name))
		})
	}
}

func TestWatchSetMissingInput(t *testing.T) {
	_, err := newWatchSet(&parser.Options{Inputs: []string{filepath.Join(t.TempDir(), "missing")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVersionJSON(t *testing.T) {
	c := NewVersionCommand()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetArgs([]string{"--json"})
	require.NoError(t, c.Execute())

	var info version.Info
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, version.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
