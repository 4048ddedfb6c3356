package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/cmmoran/aboutgen/internal/version"
)

func init() {
	rootCmd.AddCommand(NewVersionCommand())
}

func NewVersionCommand() *cobra.Command {
	var jsonOutput bool

	// versionCmd represents the aboutgen version command
	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show aboutgen version information",
		Long:  `Display version, build time, commit hash, and platform information for the aboutgen binary.`,
		RunE: func(c *cobra.Command, _ []string) error {
			info := version.Get()
			out := c.OutOrStdout()

			if jsonOutput {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return errors.Wrap(err, "format version info")
				}
				_, err = fmt.Fprintln(out, string(output))
				return err
			}
			fmt.Fprintln(out, info.String())
			fmt.Fprintf(out, "Platform: %s\n", info.Platform)
			fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
			return nil
		},
	}
	versionCmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output version info as JSON")

	return versionCmd
}
