package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cmmoran/aboutgen/pkg/action/check"
)

func init() {
	rootCmd.AddCommand(NewCheckCommand())
}

func NewCheckCommand() *cobra.Command {
	var quiet bool

	// checkCmd represents the aboutgen check command
	var checkCmd = &cobra.Command{
		Use:   "check",
		Short: "verify generated headers are up to date",
		Long: `Regenerate every requested header in memory and compare it with the file
on disk. Outputs not given as flags are read from the manifest. Exits
non-zero when any header is missing or differs.`,
		RunE: func(c *cobra.Command, _ []string) error {
			opts, err := options(c)
			if err != nil {
				return err
			}
			res, err := check.Check(c.Context(), opts, log)
			if res != nil {
				for _, s := range res.Stale {
					pterm.Warning.WithWriter(os.Stderr).Printfln("%s %s is stale", s.Kind, s.File)
					if !quiet {
						pterm.Fprintln(os.Stderr, s.Diff)
					}
				}
			}
			if err != nil {
				return err
			}
			pterm.Success.WithWriter(os.Stderr).Printfln("%s up to date", count(len(res.Checked), "artifact"))
			return nil
		},
	}
	addOptionFlags(checkCmd)
	checkCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "list stale artifacts without their diffs")

	return checkCmd
}
