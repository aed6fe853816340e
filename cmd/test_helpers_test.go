package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// resetInspectState restores flag values and the runtime config so command
// tests do not leak into each other through package globals.
func resetInspectState(t *testing.T) {
	t.Helper()
	reset := func() {
		inspectCmd.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
		defaults := newCLIConfig().Inspect
		rc := &cliConfig.Inspect
		rc.TimeoutSecs = defaults.TimeoutSecs
		rc.Concurrency = defaults.Concurrency
		rc.DomainConcurrency = defaults.DomainConcurrency
		rc.DNS = defaults.DNS
		verbose = false
		cfgFile = ""
		viper.Reset()
	}
	reset()
	t.Cleanup(reset)
}

// executeCommand runs the root command with args and returns what it wrote.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}
