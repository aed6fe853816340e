package site

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	sharedErrors "github.com/khanhnv2901/site-inspector/internal/shared/errors"
	"golang.org/x/net/publicsuffix"
)

var schemePrefix = regexp.MustCompile(`^https?:`)

// NormalizeHost reduces user input such as "HTTPS://www.Example.com/path" to
// the apex hostname "example.com".
func NormalizeHost(raw string) (string, error) {
	host := strings.ToLower(strings.TrimSpace(raw))
	host = schemePrefix.ReplaceAllString(host, "")
	host = strings.TrimLeft(host, "/")
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", sharedErrors.ErrEmptyHost
	}

	u, err := url.Parse("//" + host)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", sharedErrors.ErrInvalidHost, raw, err)
	}
	hostname := strings.TrimSuffix(u.Hostname(), ".")
	if hostname == "" || strings.ContainsAny(hostname, " \t") {
		return "", fmt.Errorf("%w: %q", sharedErrors.ErrInvalidHost, raw)
	}
	return hostname, nil
}

// apexHost strips a leading "www." so www and root forms compare equal.
func apexHost(host string) string {
	return strings.TrimPrefix(host, "www.")
}

// isWWWHost reports whether the sub-domain left of the registrable domain is
// exactly "www". Hosts without a known public suffix fall back to a prefix test.
func isWWWHost(host string) bool {
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	if net.ParseIP(hostname) != nil {
		return false
	}

	if suffix, icann := publicsuffix.PublicSuffix(hostname); !icann && !strings.Contains(suffix, ".") {
		return hasWWWPrefix(hostname)
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		return hasWWWPrefix(hostname)
	}
	if registrable == hostname {
		return false
	}
	return strings.TrimSuffix(hostname, "."+registrable) == "www"
}

func hasWWWPrefix(hostname string) bool {
	return strings.HasPrefix(hostname, "www.") && len(hostname) > len("www.")
}
