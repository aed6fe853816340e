package cmd

import (
	"fmt"
	"runtime"

	"github.com/khanhnv2901/site-inspector/internal/shared/constants"
	"github.com/spf13/cobra"
)

// Build metadata, set with -ldflags "-X .../cmd.Version=..." by release builds.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the site-inspector build",
	Long:  "Print the site-inspector release, and with --verbose the commit, build date and Go runtime it was built with.",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "site-inspector version %s\n", Version)
		if !verbose {
			return
		}
		fmt.Fprintf(out, "commit:   %s\n", GitCommit)
		fmt.Fprintf(out, "built:    %s\n", BuildDate)
		fmt.Fprintf(out, "runtime:  %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "probes:   %s\n", fmt.Sprintf(constants.UserAgentFormat, Version))
	},
}
