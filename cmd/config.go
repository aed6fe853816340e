package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/khanhnv2901/site-inspector/internal/application"
	inspectapp "github.com/khanhnv2901/site-inspector/internal/application/inspect"
	"github.com/khanhnv2901/site-inspector/internal/checker"
	"github.com/khanhnv2901/site-inspector/internal/domain/site"
	"github.com/khanhnv2901/site-inspector/internal/infrastructure/cache"
	"github.com/khanhnv2901/site-inspector/internal/infrastructure/fetch"
	"github.com/khanhnv2901/site-inspector/internal/shared/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultTimeoutSeconds    = int(constants.DefaultRequestTimeout / time.Second)
	defaultDNSTimeoutSeconds = int(constants.DefaultDNSTimeout / time.Second)
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Inspect InspectRuntimeConfig
}

// InspectRuntimeConfig consolidates flag-driven settings for the inspect command.
type InspectRuntimeConfig struct {
	Concurrency       int
	DomainConcurrency int
	RateLimit         int
	TimeoutSecs       int
	ProbeMethod       string
	UserAgent         string
	All               bool
	Checks            []string
	PreloadStatus     bool
	Format            string
	Pretty            bool
	MetricsFile       string
	InputFile         string
	Cache             CacheConfig
	DNS               DNSConfig
}

// CacheConfig groups response cache options.
type CacheConfig struct {
	Backend string
	Dir     string
	Replace bool
}

// DNSConfig groups DNS-specific runtime options.
type DNSConfig struct {
	Timeout int
}

type inspectOverrides struct {
	TimeoutSecs       *int
	Concurrency       *int
	DomainConcurrency *int
	RateLimit         *int
	UserAgent         string
	Checks            []string
	PreloadStatus     *bool
	CacheBackend      string
	CacheDir          string
	CacheReplace      *bool
	DNSTimeout        *int
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Inspect: InspectRuntimeConfig{
			Concurrency:       constants.DefaultConcurrency,
			DomainConcurrency: constants.DefaultDomainConcurrency,
			RateLimit:         0,
			TimeoutSecs:       defaultTimeoutSeconds,
			Format:            "text",
			Cache: CacheConfig{
				Backend: cache.BackendMemory,
			},
			DNS: DNSConfig{
				Timeout: defaultDNSTimeoutSeconds,
			},
		},
	}
}

func loadInspectOverrides() inspectOverrides {
	overrides := inspectOverrides{}

	if viper.IsSet("inspect.timeout_secs") {
		val := viper.GetInt("inspect.timeout_secs")
		overrides.TimeoutSecs = &val
	}

	if viper.IsSet("inspect.concurrency") {
		val := viper.GetInt("inspect.concurrency")
		overrides.Concurrency = &val
	}

	if viper.IsSet("inspect.domain_concurrency") {
		val := viper.GetInt("inspect.domain_concurrency")
		overrides.DomainConcurrency = &val
	}

	if viper.IsSet("inspect.rate_limit") {
		val := viper.GetInt("inspect.rate_limit")
		overrides.RateLimit = &val
	}

	if viper.IsSet("inspect.user_agent") {
		overrides.UserAgent = viper.GetString("inspect.user_agent")
	}

	if viper.IsSet("inspect.checks") {
		overrides.Checks = viper.GetStringSlice("inspect.checks")
	}

	if viper.IsSet("inspect.preload_status") {
		val := viper.GetBool("inspect.preload_status")
		overrides.PreloadStatus = &val
	}

	if viper.IsSet("inspect.cache.backend") {
		overrides.CacheBackend = viper.GetString("inspect.cache.backend")
	}

	if viper.IsSet("inspect.cache.dir") {
		overrides.CacheDir = viper.GetString("inspect.cache.dir")
	}

	if viper.IsSet("inspect.cache.replace") {
		val := viper.GetBool("inspect.cache.replace")
		overrides.CacheReplace = &val
	}

	if viper.IsSet("inspect.dns_timeout_secs") {
		val := viper.GetInt("inspect.dns_timeout_secs")
		overrides.DNSTimeout = &val
	}

	return overrides
}

// applyConfigDefaults merges config file defaults into the runtime config when the user
// did not explicitly override the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	overrides := loadInspectOverrides()
	flags := inspectCmd.Flags()
	rc := &cliConfig.Inspect

	if overrides.TimeoutSecs != nil {
		applyIntDefault(flags, "timeout", *overrides.TimeoutSecs, func(v int) { rc.TimeoutSecs = v })
	}
	if overrides.Concurrency != nil {
		applyIntDefault(flags, "concurrency", *overrides.Concurrency, func(v int) { rc.Concurrency = v })
	}
	if overrides.DomainConcurrency != nil {
		applyIntDefault(flags, "domain-concurrency", *overrides.DomainConcurrency, func(v int) { rc.DomainConcurrency = v })
	}
	if overrides.RateLimit != nil {
		applyIntDefault(flags, "rate-limit", *overrides.RateLimit, func(v int) { rc.RateLimit = v })
	}
	if overrides.UserAgent != "" {
		setStringFlagIfUnset(flags, "user-agent", overrides.UserAgent)
	}
	if len(overrides.Checks) > 0 {
		applyStringSliceDefault(flags, "checks", overrides.Checks, func(v []string) { rc.Checks = v })
	}
	if overrides.PreloadStatus != nil {
		applyBoolDefault(flags, "preload-status", *overrides.PreloadStatus, func(v bool) { rc.PreloadStatus = v })
	}
	if overrides.CacheBackend != "" {
		setStringFlagIfUnset(flags, "cache", overrides.CacheBackend)
	}
	if overrides.CacheDir != "" {
		setStringFlagIfUnset(flags, "cache-dir", overrides.CacheDir)
	}
	if overrides.CacheReplace != nil {
		applyBoolDefault(flags, "cache-replace", *overrides.CacheReplace, func(v bool) { rc.Cache.Replace = v })
	}
	if overrides.DNSTimeout != nil {
		rc.DNS.Timeout = *overrides.DNSTimeout
	}
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyStringSliceDefault(flags *pflag.FlagSet, name string, value []string, setter func([]string)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func setStringFlagIfUnset(flags *pflag.FlagSet, name, value string) {
	if flags == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag == nil || flag.Changed {
		return
	}
	_ = flag.Value.Set(value)
}

// validate rejects settings no run could work with.
func (rc InspectRuntimeConfig) validate() error {
	if rc.TimeoutSecs <= 0 {
		return fmt.Errorf("--timeout must be positive, got %d", rc.TimeoutSecs)
	}
	if rc.Concurrency <= 0 {
		return fmt.Errorf("--concurrency must be positive, got %d", rc.Concurrency)
	}
	if rc.DomainConcurrency <= 0 {
		return fmt.Errorf("--domain-concurrency must be positive, got %d", rc.DomainConcurrency)
	}
	if rc.RateLimit < 0 {
		return fmt.Errorf("--rate-limit cannot be negative, got %d", rc.RateLimit)
	}
	switch rc.Format {
	case "text", "json":
	default:
		return fmt.Errorf("--format must be text or json, got %q", rc.Format)
	}
	return nil
}

// appConfig turns runtime flags into the explicit configuration the
// application layer is built from.
func (rc InspectRuntimeConfig) appConfig() application.Config {
	timeout := time.Duration(rc.TimeoutSecs) * time.Second
	userAgent := rc.UserAgent
	if strings.TrimSpace(userAgent) == "" {
		userAgent = fmt.Sprintf(constants.UserAgentFormat, Version)
	}

	return application.Config{
		Cache: cache.Config{
			Backend: rc.Cache.Backend,
			Dir:     rc.Cache.Dir,
			Replace: rc.Cache.Replace,
		},
		Fetch: fetch.Config{
			Concurrency: rc.Concurrency,
			RateLimit:   rc.RateLimit,
			Timeout:     timeout,
		},
		Transport: fetch.HTTPTransportConfig{
			UserAgent: userAgent,
		},
		Site: site.Config{
			Timeout:     timeout,
			ProbeMethod: rc.ProbeMethod,
		},
		Checks: rc.Checks,
		Check: checker.Options{
			DNSTimeout:    time.Duration(rc.DNS.Timeout) * time.Second,
			PreloadStatus: rc.PreloadStatus,
		},
		Inspect: inspectapp.Config{
			DomainConcurrency: rc.DomainConcurrency,
			All:               rc.All,
		},
	}
}
