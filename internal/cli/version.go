package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/parsimony/pkg/buildinfo"
)

// versionCommand prints build metadata.
func (c *CLI) versionCommand() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonOut {
				return json.NewEncoder(stdout).Encode(buildinfo.Get())
			}
			fmt.Fprintln(stdout, StyleTitle.Render(appName))
			fmt.Fprintln(stdout, buildinfo.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print as JSON")
	return cmd
}
