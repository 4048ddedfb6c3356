package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cmmoran/aboutgen/pkg/action/generate"
)

func init() {
	rootCmd.AddCommand(NewGenerateCommand())
}

func NewGenerateCommand() *cobra.Command {
	// generateCmd represents the aboutgen generate command
	var generateCmd = &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "generate reflection headers",
		Long:    "Parse the inputs and write every requested reflection, metadata and enumeration formatter header",
		Example: `  aboutgen generate -i include/ --reflect gen/reflect.hpp --enum-ostream gen/enum-ostream.hpp
  aboutgen generate --model model.yaml --include-path geom.hpp --meta -`,
		RunE: func(c *cobra.Command, _ []string) error {
			opts, err := options(c)
			if err != nil {
				return err
			}
			report, err := generate.Generate(c.Context(), opts, log)
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}
	addOptionFlags(generateCmd)

	return generateCmd
}

// printReport summarizes file artifacts on stderr; console artifacts already
// occupy stdout.
func printReport(report *generate.Report) {
	for _, a := range report.Artifacts {
		if a.Console() {
			continue
		}
		var parts []string
		if n := a.Stats.Classes; n > 0 {
			parts = append(parts, count(n, "class"))
		}
		if n := a.Stats.Enumerations; n > 0 {
			parts = append(parts, count(n, "enumeration"))
		}
		if n := a.Stats.Markers; n > 0 {
			parts = append(parts, count(n, "marker"))
		}
		if len(parts) == 0 {
			parts = append(parts, "no declarations")
		}
		pterm.Success.WithWriter(os.Stderr).Printfln("%s %s: %s (%s)", a.Kind, a.File, strings.Join(parts, ", "), count(len(a.Content), "byte"))
	}
}

func count(n int, noun string) string {
	if n != 1 {
		noun = inflection.Plural(noun)
	}
	return fmt.Sprintf("%d %s", n, noun)
}
