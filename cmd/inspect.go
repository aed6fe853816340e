package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/khanhnv2901/site-inspector/internal/application"
	inspectapp "github.com/khanhnv2901/site-inspector/internal/application/inspect"
	"github.com/khanhnv2901/site-inspector/internal/domain/site"
	"github.com/khanhnv2901/site-inspector/internal/infrastructure/fetch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// newTransport builds the network transport; tests swap it for a fake.
var newTransport = func(cfg fetch.HTTPTransportConfig) fetch.Transport {
	return fetch.NewHTTPTransport(cfg)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [domain...]",
	Short: "Inspect one or more domains",
	Long: `Probe https://, https://www., http:// and http://www. for every domain,
resolve the canonical endpoint and report HTTPS and HSTS posture.

Examples:
  site-inspector inspect example.com
  site-inspector inspect --all --format json example.com example.org
  site-inspector inspect --file domains.txt --cache disk --cache-dir ./cache`,
	RunE: runInspect,
}

func init() {
	rc := &cliConfig.Inspect
	flags := inspectCmd.Flags()

	flags.BoolVar(&rc.All, "all", false, "report every endpoint, not just the canonical one")
	flags.StringSliceVar(&rc.Checks, "checks", nil, "checks to run (default: every check enabled by default; see 'checks')")
	flags.IntVar(&rc.TimeoutSecs, "timeout", rc.TimeoutSecs, "per-request timeout in seconds")
	flags.IntVar(&rc.Concurrency, "concurrency", rc.Concurrency, "maximum requests in flight")
	flags.IntVar(&rc.DomainConcurrency, "domain-concurrency", rc.DomainConcurrency, "domains inspected at once")
	flags.IntVar(&rc.RateLimit, "rate-limit", rc.RateLimit, "requests per second (0 = unlimited)")
	flags.StringVar(&rc.ProbeMethod, "probe-method", "HEAD", "HTTP method of the initial endpoint probe")
	flags.StringVar(&rc.UserAgent, "user-agent", "", "User-Agent header sent with every request")
	flags.BoolVar(&rc.PreloadStatus, "preload-status", false, "query hstspreload.org for the preload list status")
	flags.StringVar(&rc.Cache.Backend, "cache", rc.Cache.Backend, "response cache backend: memory, disk or badger")
	flags.StringVar(&rc.Cache.Dir, "cache-dir", "", "directory for the disk or badger cache")
	flags.BoolVar(&rc.Cache.Replace, "cache-replace", false, "discard disk cache entries from earlier runs")
	flags.StringVar(&rc.Format, "format", rc.Format, "output format: text or json")
	flags.BoolVar(&rc.Pretty, "pretty", false, "indent JSON output")
	flags.StringVar(&rc.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	flags.StringVarP(&rc.InputFile, "file", "f", "", "read domains from a file, one per line")
}

func runInspect(cmd *cobra.Command, args []string) error {
	rc := cliConfig.Inspect
	if err := rc.validate(); err != nil {
		return err
	}

	hosts := append([]string{}, args...)
	if rc.InputFile != "" {
		fromFile, err := readHostsFile(rc.InputFile)
		if err != nil {
			return err
		}
		hosts = append(hosts, fromFile...)
	}
	if len(hosts) == 0 {
		return fmt.Errorf("no domains given: pass them as arguments or with --file")
	}

	cfg := rc.appConfig()
	cfg.Logger = baseLogger()
	registry := prometheus.NewRegistry()
	cfg.Registerer = registry

	container, err := application.NewContainerWithTransport(cfg, newTransport(cfg.Transport))
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warnf("failed to close cache: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	run := container.Inspector.InspectAll(ctx, hosts)

	if rc.MetricsFile != "" {
		if err := writeMetrics(rc.MetricsFile, registry); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if rc.Format == "json" {
		return writeJSON(out, run, rc.Pretty)
	}
	writeSummary(out, run)
	return nil
}

func readHostsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open domain list: %w", err)
	}
	defer f.Close()

	var hosts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hosts = append(hosts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read domain list: %w", err)
	}
	return hosts, nil
}

func writeMetrics(path string, registry *prometheus.Registry) error {
	clean, err := resolveOutputPath(path)
	if err != nil {
		return fmt.Errorf("invalid metrics file: %w", err)
	}
	if err := prometheus.WriteToTextfile(clean, registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, run *inspectapp.Run, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(run)
}

func writeSummary(w io.Writer, run *inspectapp.Run) {
	for i, result := range run.Results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if result.Err != nil {
			fmt.Fprintf(w, "%s  %s\n", colorError("✗"), result.Input)
			fmt.Fprintf(w, "  %s\n", colorError(result.Error))
			continue
		}
		writeDomainSummary(w, result.Report)
	}
}

func writeDomainSummary(w io.Writer, r *site.DomainReport) {
	fmt.Fprintf(w, "%s\n", colorInfo(r.Host))

	canonical := colorWarn("indeterminate")
	if r.CanonicalEndpoint != nil {
		canonical = r.CanonicalEndpoint.URI
	}
	rows := []struct {
		label string
		value string
	}{
		{"canonical endpoint", canonical},
		{"up", formatBool(r.Up)},
		{"https", formatBool(r.HTTPS)},
		{"enforces https", formatBool(r.EnforcesHTTPS)},
		{"downgrades https", formatBoolInverted(r.DowngradesHTTPS)},
		{"canonically www", formatNeutral(r.CanonicallyWWW)},
		{"canonically https", formatBool(r.CanonicallyHTTPS)},
		{"hsts", formatBool(r.HSTS)},
		{"hsts subdomains", formatBool(r.HSTSSubdomains)},
		{"hsts preload ready", formatBool(r.HSTSPreloadReady)},
		{"redirects away", formatNeutral(r.RedirectsAway)},
	}
	if r.RedirectTo != "" {
		rows = append(rows, struct {
			label string
			value string
		}{"redirect", r.RedirectTo})
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  %-20s %s\n", row.label+":", row.value)
	}

	if r.Endpoints == nil {
		return
	}
	fmt.Fprintln(w, "  endpoints:")
	for _, e := range []*site.EndpointReport{r.Endpoints.HTTPS.Root, r.Endpoints.HTTPS.WWW, r.Endpoints.HTTP.Root, r.Endpoints.HTTP.WWW} {
		if e == nil {
			continue
		}
		fmt.Fprintf(w, "    %-28s %s\n", e.URI, formatEndpointState(e))
	}
}
