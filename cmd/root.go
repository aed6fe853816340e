package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string
var verbose bool
var logger *zap.SugaredLogger

var rootCmd = &cobra.Command{
	Use:   "site-inspector",
	Short: "Inspect a domain's HTTP, HTTPS and HSTS posture",
	Long: `site-inspector probes the four endpoints of a domain (root and www, over
http and https), works out which one is canonical, follows redirects and
reports whether the domain supports, enforces and preloads HTTPS.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init config
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.SetConfigName(".site-inspector")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("SITE_INSPECTOR")
		viper.AutomaticEnv()

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
				return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
			}
		}

		// init logger
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l.Sugar()

		applyConfigDefaults(cmd)
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debugf("config=%s", used)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// baseLogger is the structured logger handed to internal packages
func baseLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Desugar()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// config file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.site-inspector.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	// add subcommands
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(checksCmd)
	rootCmd.AddCommand(versionCmd)
}
