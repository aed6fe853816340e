package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/khanhnv2901/site-inspector/internal/checker"
	"github.com/spf13/cobra"
)

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List available checks",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDEFAULT")
		for _, def := range checker.Registry() {
			state := "off"
			if def.Enabled {
				state = colorSuccess("on")
			}
			fmt.Fprintf(w, "%s\t%s\n", def.Name, state)
		}
		_ = w.Flush()
	},
}
