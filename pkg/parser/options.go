package parser

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Provider names the source of the declaration model.
type Provider string

const (
	ProviderTreeSitter Provider = "treesitter"
	ProviderClang      Provider = "clang"
	ProviderModel      Provider = "model"
)

var (
	// ErrInvalidOptions marks option values Normalize cannot repair.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrUnknownProvider marks a Provider name no declaration source answers to.
	ErrUnknownProvider = errors.New("unknown declaration provider")
)

// Options is the configuration value of one generation run. It is built once
// and passed to every component that needs it.
//
// Inputs             – header files or directories; echoed as #include directives
// Provider           – treesitter, clang or model
// ModelFile          – serialized declaration model (Provider=model)
// ClangPath          – clang executable (Provider=clang)
// ClangArgs          – extra clang arguments, shell-quoted
// ClangAST           – pre-dumped clang JSON AST; skips running clang
// OutputReflect      – member-access reflection artifact path
// OutputMeta         – metadata artifact path
// OutputEnumOstream  – enumeration formatting artifact path
// Debug              – render every artifact to the console
// LabelStyle         – "enum" (Color::RED) or "full" (gfx::Color::RED)
// WrapperNaming      – "qualified" or "simple" member-name wrapper identifiers
// IncludePaths       – replaces Inputs in #include directives when set
// ExcludeTypes       – glob patterns over qualified class/enum names to skip
// ExcludeNamespaces  – glob patterns over qualified namespace names to skip
// Manifest           – artifact manifest path; empty disables the manifest
// RespectGitignore   – skip files ignored by .gitignore when expanding directories
type Options struct {
	Inputs            []string `json:"inputs,omitempty" yaml:"inputs,omitempty" toml:"inputs,omitempty" mapstructure:"inputs,omitempty"`
	Provider          Provider `json:"provider,omitempty" yaml:"provider,omitempty" toml:"provider,omitempty" mapstructure:"provider,omitempty"`
	ModelFile         string   `json:"model_file,omitempty" yaml:"model_file,omitempty" toml:"model_file,omitempty" mapstructure:"model_file,omitempty"`
	ClangPath         string   `json:"clang_path,omitempty" yaml:"clang_path,omitempty" toml:"clang_path,omitempty" mapstructure:"clang_path,omitempty"`
	ClangArgs         string   `json:"clang_args,omitempty" yaml:"clang_args,omitempty" toml:"clang_args,omitempty" mapstructure:"clang_args,omitempty"`
	ClangAST          string   `json:"clang_ast,omitempty" yaml:"clang_ast,omitempty" toml:"clang_ast,omitempty" mapstructure:"clang_ast,omitempty"`
	OutputReflect     string   `json:"output_reflect,omitempty" yaml:"output_reflect,omitempty" toml:"output_reflect,omitempty" mapstructure:"output_reflect,omitempty"`
	OutputMeta        string   `json:"output_meta,omitempty" yaml:"output_meta,omitempty" toml:"output_meta,omitempty" mapstructure:"output_meta,omitempty"`
	OutputEnumOstream string   `json:"output_enum_ostream,omitempty" yaml:"output_enum_ostream,omitempty" toml:"output_enum_ostream,omitempty" mapstructure:"output_enum_ostream,omitempty"`
	Debug             bool     `json:"debug,omitempty" yaml:"debug,omitempty" toml:"debug,omitempty" mapstructure:"debug,omitempty"`
	LabelStyle        string   `json:"label_style,omitempty" yaml:"label_style,omitempty" toml:"label_style,omitempty" mapstructure:"label_style,omitempty"`
	WrapperNaming     string   `json:"wrapper_naming,omitempty" yaml:"wrapper_naming,omitempty" toml:"wrapper_naming,omitempty" mapstructure:"wrapper_naming,omitempty"`
	IncludePaths      []string `json:"include_paths,omitempty" yaml:"include_paths,omitempty" toml:"include_paths,omitempty" mapstructure:"include_paths,omitempty"`
	ExcludeTypes      []string `json:"exclude_types,omitempty" yaml:"exclude_types,omitempty" toml:"exclude_types,omitempty" mapstructure:"exclude_types,omitempty"`
	ExcludeNamespaces []string `json:"exclude_namespaces,omitempty" yaml:"exclude_namespaces,omitempty" toml:"exclude_namespaces,omitempty" mapstructure:"exclude_namespaces,omitempty"`
	Manifest          string   `json:"manifest,omitempty" yaml:"manifest,omitempty" toml:"manifest,omitempty" mapstructure:"manifest,omitempty"`
	RespectGitignore  bool     `json:"respect_gitignore,omitempty" yaml:"respect_gitignore,omitempty" toml:"respect_gitignore,omitempty" mapstructure:"respect_gitignore,omitempty"`
}

func NewOptions() *Options {
	return &Options{
		Provider:         ProviderTreeSitter,
		ClangPath:        "clang++",
		LabelStyle:       "enum",
		WrapperNaming:    "qualified",
		RespectGitignore: true,
	}
}

// Normalize fills defaults and rejects values no component understands.
func (o *Options) Normalize() error {
	if o.Provider == "" {
		o.Provider = ProviderTreeSitter
		if o.ModelFile != "" {
			o.Provider = ProviderModel
		} else if o.ClangAST != "" {
			o.Provider = ProviderClang
		}
	}
	o.Provider = Provider(strings.ToLower(string(o.Provider)))
	switch o.Provider {
	case ProviderTreeSitter, ProviderClang, ProviderModel:
	default:
		return errors.WithHint(
			errors.Mark(errors.Wrapf(ErrInvalidOptions, "provider %q", o.Provider), ErrUnknownProvider),
			"use one of: treesitter, clang, model",
		)
	}
	if o.Provider == ProviderModel && o.ModelFile == "" {
		return errors.Wrap(ErrInvalidOptions, "provider \"model\" needs a model file")
	}
	if o.ClangPath == "" {
		o.ClangPath = "clang++"
	}
	if o.LabelStyle == "" {
		o.LabelStyle = "enum"
	}
	o.LabelStyle = strings.ToLower(o.LabelStyle)
	if o.LabelStyle != "enum" && o.LabelStyle != "full" {
		return errors.Wrapf(ErrInvalidOptions, "unknown label style %q", o.LabelStyle)
	}
	if o.WrapperNaming == "" {
		o.WrapperNaming = "qualified"
	}
	o.WrapperNaming = strings.ToLower(o.WrapperNaming)
	if o.WrapperNaming != "qualified" && o.WrapperNaming != "simple" {
		return errors.Wrapf(ErrInvalidOptions, "unknown wrapper naming %q", o.WrapperNaming)
	}

	o.Inputs = cleanPaths(o.Inputs)
	o.IncludePaths = cleanPaths(o.IncludePaths)
	o.ExcludeTypes = trimAll(o.ExcludeTypes)
	o.ExcludeNamespaces = trimAll(o.ExcludeNamespaces)
	for _, p := range append(append([]string{}, o.ExcludeTypes...), o.ExcludeNamespaces...) {
		if _, err := filepath.Match(p, ""); err != nil {
			return errors.Wrapf(ErrInvalidOptions, "bad exclude pattern %q", p)
		}
	}
	return nil
}

// Includes returns the paths echoed as #include directives.
func (o *Options) Includes() []string {
	if len(o.IncludePaths) > 0 {
		return o.IncludePaths
	}
	return o.Inputs
}

// WantsAny reports whether at least one artifact is requested.
func (o *Options) WantsAny() bool {
	return o.Debug || o.OutputReflect != "" || o.OutputMeta != "" || o.OutputEnumOstream != ""
}

func cleanPaths(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, filepath.ToSlash(filepath.Clean(p)))
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// functional option pattern ---------------------------------------------------

type Option func(*Options)

func WithInputs(paths ...string) Option {
	return func(o *Options) { o.Inputs = append(o.Inputs, paths...) }
}

func WithProvider(p Provider) Option {
	return func(o *Options) { o.Provider = p }
}

func WithModelFile(f string) Option {
	return func(o *Options) { o.ModelFile = f; o.Provider = ProviderModel }
}

func WithClangPath(p string) Option {
	return func(o *Options) { o.ClangPath = p }
}

func WithClangArgs(a string) Option {
	return func(o *Options) { o.ClangArgs = a }
}

func WithClangAST(f string) Option {
	return func(o *Options) { o.ClangAST = f; o.Provider = ProviderClang }
}

func WithOutputReflect(f string) Option {
	return func(o *Options) { o.OutputReflect = f }
}

func WithOutputMeta(f string) Option {
	return func(o *Options) { o.OutputMeta = f }
}

func WithOutputEnumOstream(f string) Option {
	return func(o *Options) { o.OutputEnumOstream = f }
}

func WithDebug() Option {
	return func(o *Options) { o.Debug = true }
}

func WithLabelStyle(s string) Option {
	return func(o *Options) { o.LabelStyle = s }
}

func WithWrapperNaming(s string) Option {
	return func(o *Options) { o.WrapperNaming = s }
}

func WithIncludePaths(paths ...string) Option {
	return func(o *Options) { o.IncludePaths = append(o.IncludePaths, paths...) }
}

func WithExcludeTypes(patterns ...string) Option {
	return func(o *Options) { o.ExcludeTypes = append(o.ExcludeTypes, patterns...) }
}

func WithExcludeNamespaces(patterns ...string) Option {
	return func(o *Options) { o.ExcludeNamespaces = append(o.ExcludeNamespaces, patterns...) }
}

func WithManifest(path string) Option {
	return func(o *Options) { o.Manifest = path }
}

func WithoutGitignore() Option {
	return func(o *Options) { o.RespectGitignore = false }
}

// Apply builds Options from NewOptions defaults and opts.
func Apply(opts ...Option) *Options {
	o := NewOptions()
	for _, fn := range opts {
		fn(o)
	}
	return o
}
