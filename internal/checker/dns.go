package checker

import (
	"context"
	"net"
	"regexp"
	"time"

	"github.com/khanhnv2901/site-inspector/internal/shared/constants"
)

// Resolver is the subset of *net.Resolver the dns check uses
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

var googleMX = regexp.MustCompile(`(?i)google(mail)?\.com\.?$`)

// dnsCheck performs DNS resolution checks for the endpoint's host
type dnsCheck struct {
	resolver Resolver
	timeout  time.Duration
}

func newDNSCheck(opts Options) Check {
	c := dnsCheck{resolver: opts.Resolver, timeout: opts.DNSTimeout}
	if c.resolver == nil {
		c.resolver = &net.Resolver{PreferGo: true}
	}
	if c.timeout <= 0 {
		c.timeout = constants.DefaultDNSTimeout
	}
	return c
}

func (dnsCheck) Name() string { return "dns" }

func (c dnsCheck) Run(ctx context.Context, t *Target) map[string]any {
	host := t.Hostname()
	facts := map[string]any{}

	var aRecords []string
	c.lookup(ctx, func(ctx context.Context) (err error) {
		aRecords, err = c.resolver.LookupHost(ctx, host)
		return err
	})
	if len(aRecords) == 0 {
		facts["error"] = "no A records found"
		return facts
	}
	facts["ip"] = aRecords[0]
	facts["a_records"] = aRecords
	if ip := net.ParseIP(aRecords[0]); ip != nil && ip.IsLoopback() {
		facts["localhost"] = true
		return facts
	}

	// Lookup AAAA records (ipv6)
	var ipv6 []string
	c.lookup(ctx, func(ctx context.Context) error {
		ips, err := c.resolver.LookupIP(ctx, "ip6", host)
		for _, ip := range ips {
			ipv6 = append(ipv6, ip.String())
		}
		return err
	})
	facts["ipv6"] = len(ipv6) > 0
	if len(ipv6) > 0 {
		facts["aaaa_records"] = ipv6
	}

	c.lookup(ctx, func(ctx context.Context) error {
		cname, err := c.resolver.LookupCNAME(ctx, host)
		if err == nil && cname != host && cname != host+"." {
			facts["cname"] = cname
		}
		return err
	})

	googleApps := false
	c.lookup(ctx, func(ctx context.Context) error {
		mxRecords, err := c.resolver.LookupMX(ctx, host)
		if err != nil || len(mxRecords) == 0 {
			return err
		}
		mxHosts := make([]map[string]any, 0, len(mxRecords))
		for _, mx := range mxRecords {
			mxHosts = append(mxHosts, map[string]any{
				"host":     mx.Host,
				"priority": mx.Pref,
			})
			if googleMX.MatchString(mx.Host) {
				googleApps = true
			}
		}
		facts["mx_records"] = mxHosts
		return nil
	})
	facts["google_apps"] = googleApps

	c.lookup(ctx, func(ctx context.Context) error {
		nsRecords, err := c.resolver.LookupNS(ctx, host)
		if err != nil || len(nsRecords) == 0 {
			return err
		}
		nsHosts := make([]string, 0, len(nsRecords))
		for _, ns := range nsRecords {
			nsHosts = append(nsHosts, ns.Host)
		}
		facts["ns_records"] = nsHosts
		return nil
	})

	c.lookup(ctx, func(ctx context.Context) error {
		txtRecords, err := c.resolver.LookupTXT(ctx, host)
		if err == nil && len(txtRecords) > 0 {
			facts["txt_records"] = txtRecords
		}
		return err
	})

	// Reverse DNS lookup (PTR records) for first A record
	c.lookup(ctx, func(ctx context.Context) error {
		names, err := c.resolver.LookupAddr(ctx, aRecords[0])
		if err == nil && len(names) > 0 {
			facts["hostname"] = names[0]
		}
		return err
	})

	return facts
}

// lookup runs fn under the per-lookup timeout. Lookup failures only mean the
// record is absent.
func (c dnsCheck) lookup(ctx context.Context, fn func(ctx context.Context) error) {
	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_ = fn(lookupCtx)
}
