package site

import (
	"context"
	"net"
	"net/url"
	"strings"
)

// Redirect is the endpoint a 3xx response points at, or nil. A Location that
// names this endpoint's own scheme and host (including any relative path) is
// not a redirect.
func (e *Endpoint) Redirect(ctx context.Context) *Endpoint {
	return e.redirect.get(func() *Endpoint {
		resp := e.Response(ctx)
		if resp == nil || resp.StatusCode < 300 || resp.StatusCode >= 400 {
			return nil
		}
		location := strings.TrimSpace(resp.HeaderValue("Location"))
		if location == "" {
			return nil
		}
		scheme, host, ok := e.locationTarget(location)
		if !ok || e.sameAs(scheme, host) {
			return nil
		}
		return e.findOrCreate(scheme, host)
	})
}

// IsRedirect reports whether the endpoint redirects to another endpoint.
func (e *Endpoint) IsRedirect(ctx context.Context) bool {
	return e.Redirect(ctx) != nil
}

// ResolvesTo is where a client ends up. Without a redirect that is the
// endpoint itself; a target that does not redirect again is the answer;
// longer chains are settled with one follow-location probe.
func (e *Endpoint) ResolvesTo(ctx context.Context) *Endpoint {
	return e.resolvesTo.get(func() *Endpoint {
		target := e.Redirect(ctx)
		if target == nil {
			return e
		}
		if target.Redirect(ctx) == nil {
			return target
		}

		resp, err := e.Request(ctx, "", e.cfg.probeMethod(), true)
		if err != nil || resp == nil || resp.EffectiveURL == "" {
			return target
		}
		u, err := url.Parse(resp.EffectiveURL)
		if err != nil {
			return target
		}
		scheme, host, ok := normalizeTarget(u.Scheme, u.Host)
		if !ok {
			return target
		}
		if e.sameAs(scheme, host) {
			return e
		}
		return e.findOrCreate(scheme, host)
	})
}

// ExternalRedirect reports a redirect that leaves the endpoint's domain.
// www and root forms of the same host count as the same domain.
func (e *Endpoint) ExternalRedirect(ctx context.Context) bool {
	if e.Redirect(ctx) == nil {
		return false
	}
	return apexHost(hostname(e.ResolvesTo(ctx).host)) != apexHost(hostname(e.host))
}

// locationTarget returns the scheme and host a Location header points at.
// Relative locations stay on this endpoint; scheme-relative ones keep its scheme.
func (e *Endpoint) locationTarget(location string) (string, string, bool) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", false
	}
	if u.Host == "" {
		if u.Scheme != "" && u.Scheme != e.Scheme() {
			return "", "", false
		}
		return e.Scheme(), e.host, true
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = e.Scheme()
	}
	return normalizeTarget(scheme, u.Host)
}

// findOrCreate returns the owning domain's endpoint for scheme and host, or a
// new unowned endpoint when the domain has none.
func (e *Endpoint) findOrCreate(scheme, host string) *Endpoint {
	if e.domain != nil {
		for _, candidate := range e.domain.endpoints {
			if candidate.sameAs(scheme, host) {
				return candidate
			}
		}
	}
	target, _ := newEndpoint(&url.URL{Scheme: scheme, Host: host}, nil, e.fetcher, e.cfg)
	return target
}

// normalizeTarget lowercases scheme and host and drops a default port.
func normalizeTarget(scheme, host string) (string, string, bool) {
	scheme = strings.ToLower(scheme)
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if (scheme != "http" && scheme != "https") || host == "" {
		return "", "", false
	}
	if h, port, err := net.SplitHostPort(host); err == nil {
		if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
			host = h
		}
	}
	return scheme, host, true
}

func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
