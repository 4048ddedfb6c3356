package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/aboutgen/pkg/parser"
)

// configSection holds the run options in config files; keys under it are the
// mapstructure names of parser.Options.
const configSection = "generate"

// optionKeys maps each option flag to its configuration key.
var optionKeys = map[string]string{
	"input":              "inputs",
	"provider":           "provider",
	"model":              "model_file",
	"clang":              "clang_path",
	"clang-args":         "clang_args",
	"clang-ast":          "clang_ast",
	"reflect":            "output_reflect",
	"meta":               "output_meta",
	"enum-ostream":       "output_enum_ostream",
	"debug":              "debug",
	"label-style":        "label_style",
	"wrapper-naming":     "wrapper_naming",
	"include-path":       "include_paths",
	"exclude-types":      "exclude_types",
	"exclude-namespaces": "exclude_namespaces",
	"manifest":           "manifest",
}

// addOptionFlags registers the flags shared by every command that runs the
// generator.
func addOptionFlags(c *cobra.Command) {
	d := parser.NewOptions()
	f := c.Flags()
	f.StringSliceP("input", "i", []string{}, "header files or directories to read")
	f.String("provider", "", "declaration provider: treesitter, clang or model (inferred from --model and --clang-ast)")
	f.StringP("model", "m", "", "declaration model file (.yaml, .yml, .json or .toml)")
	f.String("clang", d.ClangPath, "clang executable")
	f.String("clang-args", "", "extra clang arguments, shell-quoted")
	f.String("clang-ast", "", "pre-dumped clang JSON AST to read instead of running clang")
	f.StringP("reflect", "r", "", "member-access reflection output file, - for stdout")
	f.String("meta", "", "metadata output file, - for stdout")
	f.StringP("enum-ostream", "e", "", "enumeration formatter output file, - for stdout")
	f.BoolP("debug", "d", false, "write every artifact without an output file to stdout")
	f.String("label-style", d.LabelStyle, "enumerator labels written by formatters: enum or full")
	f.String("wrapper-naming", d.WrapperNaming, "member wrapper identifiers: qualified or simple")
	f.StringSlice("include-path", []string{}, "paths written as #include directives instead of the inputs")
	f.StringSliceP("exclude-types", "t", []string{}, "glob patterns of classes and enumerations to skip")
	f.StringSlice("exclude-namespaces", []string{}, "glob patterns of namespaces to skip")
	f.String("manifest", "", "artifact manifest file")
	f.Bool("no-gitignore", false, "walk input directories without honoring .gitignore")
}

// options binds c's flags to the configuration and reads a fresh Options
// value: flags first, then environment, then config files, then defaults.
func options(c *cobra.Command) (*parser.Options, error) {
	for flag, key := range optionKeys {
		if err := viper.BindPFlag(configKey(key), c.Flags().Lookup(flag)); err != nil {
			return nil, errors.Wrapf(err, "bind --%s", flag)
		}
	}
	viper.SetDefault(configKey("respect_gitignore"), true)

	o := parser.NewOptions()
	o.Inputs = viper.GetStringSlice(configKey("inputs"))
	o.Provider = parser.Provider(viper.GetString(configKey("provider")))
	o.ModelFile = viper.GetString(configKey("model_file"))
	o.ClangPath = viper.GetString(configKey("clang_path"))
	o.ClangArgs = viper.GetString(configKey("clang_args"))
	o.ClangAST = viper.GetString(configKey("clang_ast"))
	o.OutputReflect = viper.GetString(configKey("output_reflect"))
	o.OutputMeta = viper.GetString(configKey("output_meta"))
	o.OutputEnumOstream = viper.GetString(configKey("output_enum_ostream"))
	o.Debug = viper.GetBool(configKey("debug"))
	o.LabelStyle = viper.GetString(configKey("label_style"))
	o.WrapperNaming = viper.GetString(configKey("wrapper_naming"))
	o.IncludePaths = viper.GetStringSlice(configKey("include_paths"))
	o.ExcludeTypes = viper.GetStringSlice(configKey("exclude_types"))
	o.ExcludeNamespaces = viper.GetStringSlice(configKey("exclude_namespaces"))
	o.Manifest = viper.GetString(configKey("manifest"))
	o.RespectGitignore = viper.GetBool(configKey("respect_gitignore"))
	if noGitignore, _ := c.Flags().GetBool("no-gitignore"); noGitignore {
		o.RespectGitignore = false
	}
	return o, nil
}

func configKey(key string) string {
	return configSection + "." + key
}
