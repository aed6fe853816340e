package site

import (
	"context"
	"net/url"

	"github.com/khanhnv2901/site-inspector/internal/infrastructure/fetch"
	sharedErrors "github.com/khanhnv2901/site-inspector/internal/shared/errors"
	"golang.org/x/sync/errgroup"
)

// Domain is an apex host and its four endpoints. Every conclusion is derived
// from the endpoints' settled state; nothing here probes on its own.
type Domain struct {
	host      string
	endpoints []*Endpoint
	fetcher   Fetcher
	cfg       Config
}

// NewDomain normalizes host and builds its endpoints in the fixed order
// https-root, https-www, http-root, http-www.
func NewDomain(host string, fetcher Fetcher, cfg Config) (*Domain, error) {
	if fetcher == nil {
		return nil, sharedErrors.ErrNilTransport
	}
	apex, err := NormalizeHost(host)
	if err != nil {
		return nil, err
	}

	d := &Domain{host: apex, fetcher: fetcher, cfg: cfg}
	for _, scheme := range []string{"https", "http"} {
		for _, h := range []string{apex, "www." + apex} {
			e, ok := newEndpoint(&url.URL{Scheme: scheme, Host: h}, d, fetcher, cfg)
			if !ok {
				return nil, sharedErrors.ErrInvalidHost
			}
			d.endpoints = append(d.endpoints, e)
		}
	}
	return d, nil
}

// Host is the normalized apex host.
func (d *Domain) Host() string { return d.host }

func (d *Domain) String() string { return d.host }

// Endpoints returns the four endpoints in fixed order.
func (d *Domain) Endpoints() []*Endpoint {
	out := make([]*Endpoint, len(d.endpoints))
	copy(out, d.endpoints)
	return out
}

// Endpoint returns the endpoint with the given shape.
func (d *Domain) Endpoint(https, www bool) *Endpoint {
	for _, e := range d.endpoints {
		if e.IsHTTPS() == https && e.IsWWW() == www {
			return e
		}
	}
	return nil
}

// Prefetch issues the four initial probes as one batch and settles every
// endpoint from the results. Later accessors never repeat these requests.
func (d *Domain) Prefetch(ctx context.Context) {
	reqs := make([]fetch.Request, len(d.endpoints))
	for i, e := range d.endpoints {
		reqs[i] = e.initialRequest()
	}
	responses := d.fetcher.RunBatch(ctx, reqs)

	var g errgroup.Group
	for i, e := range d.endpoints {
		e := e
		var resp *fetch.Response
		if i < len(responses) {
			resp = responses[i]
		}
		g.Go(func() error {
			e.seed(ctx, resp)
			return nil
		})
	}
	_ = g.Wait()
}

// Up reports whether any endpoint is up.
func (d *Domain) Up(ctx context.Context) bool {
	return d.any(ctx, d.endpoints, (*Endpoint).Up)
}

// Responds reports whether any endpoint answered at all.
func (d *Domain) Responds(ctx context.Context) bool {
	return d.any(ctx, d.endpoints, (*Endpoint).Responds)
}

// WWW reports whether any www endpoint is up.
func (d *Domain) WWW(ctx context.Context) bool {
	return d.any(ctx, d.wwwEndpoints(), (*Endpoint).Up)
}

// Root reports whether any root endpoint is up.
func (d *Domain) Root(ctx context.Context) bool {
	return d.any(ctx, d.rootEndpoints(), (*Endpoint).Up)
}

// HTTPS reports whether any https endpoint is up with a valid certificate.
func (d *Domain) HTTPS(ctx context.Context) bool {
	return d.any(ctx, d.httpsEndpoints(), func(e *Endpoint, ctx context.Context) bool {
		return e.Up(ctx) && e.HTTPS(ctx).Valid()
	})
}

// EnforcesHTTPS reports HTTPS support where every http endpoint is down or
// ends up on https, on this domain or another.
func (d *Domain) EnforcesHTTPS(ctx context.Context) bool {
	if !d.HTTPS(ctx) {
		return false
	}
	for _, e := range d.httpEndpoints() {
		if !e.Up(ctx) {
			continue
		}
		if !e.IsRedirect(ctx) || !e.ResolvesTo(ctx).IsHTTPS() {
			return false
		}
	}
	return true
}

// DowngradesHTTPS reports an https-capable domain whose canonical endpoint
// redirects to plain http.
func (d *Domain) DowngradesHTTPS(ctx context.Context) bool {
	if !d.HTTPS(ctx) {
		return false
	}
	canonical := d.CanonicalEndpoint(ctx)
	if canonical == nil || !canonical.IsRedirect(ctx) {
		return false
	}
	return canonical.ResolvesTo(ctx).IsHTTP()
}

// CanonicallyWWW reports a domain whose root endpoints are down or redirect
// internally to a www endpoint.
func (d *Domain) CanonicallyWWW(ctx context.Context) bool {
	if !d.Up(ctx) || !d.WWW(ctx) {
		return false
	}
	roots := d.rootEndpoints()
	if d.allDown(ctx, roots) {
		return true
	}
	return d.any(ctx, roots, func(e *Endpoint, ctx context.Context) bool {
		return e.redirectsInternallyTo(ctx, func(t *Endpoint) bool { return t.IsWWW() })
	})
}

// CanonicallyHTTPS reports a domain whose http endpoints are down or redirect
// internally to an https endpoint.
func (d *Domain) CanonicallyHTTPS(ctx context.Context) bool {
	if !d.Up(ctx) || !d.HTTPS(ctx) {
		return false
	}
	plain := d.httpEndpoints()
	if d.allDown(ctx, plain) {
		return true
	}
	return d.any(ctx, plain, func(e *Endpoint, ctx context.Context) bool {
		return e.redirectsInternallyTo(ctx, (*Endpoint).IsHTTPS)
	})
}

// CanonicalEndpoint is the endpoint whose shape matches CanonicallyHTTPS and
// CanonicallyWWW, or nil when none does. That happens when the apex itself
// already has a www shape (www.www.localhost normalizes to www.localhost), so
// no endpoint is root-shaped.
func (d *Domain) CanonicalEndpoint(ctx context.Context) *Endpoint {
	return d.Endpoint(d.CanonicallyHTTPS(ctx), d.CanonicallyWWW(ctx))
}

// Redirect is where the first externally redirecting endpoint resolves to.
func (d *Domain) Redirect(ctx context.Context) *Endpoint {
	for _, e := range d.endpoints {
		if e.ExternalRedirect(ctx) {
			return e.ResolvesTo(ctx)
		}
	}
	return nil
}

// RedirectsAway reports a pure redirector: some endpoint redirects to another
// domain and every endpoint is either down or does the same.
func (d *Domain) RedirectsAway(ctx context.Context) bool {
	found := false
	for _, e := range d.endpoints {
		external := e.ExternalRedirect(ctx)
		if external {
			found = true
			continue
		}
		if e.Up(ctx) {
			return false
		}
	}
	return found
}

// HSTS reports whether the canonical endpoint enables HSTS.
func (d *Domain) HSTS(ctx context.Context) bool {
	canonical := d.CanonicalEndpoint(ctx)
	return canonical != nil && canonical.HSTS(ctx).Enabled
}

// HSTSSubdomains reads includeSubDomains from the https root endpoint, where
// it covers the whole domain.
func (d *Domain) HSTSSubdomains(ctx context.Context) bool {
	return d.rootHSTS(ctx).IncludeSubdomains
}

// HSTSPreloadReady reads preload readiness from the https root endpoint.
func (d *Domain) HSTSPreloadReady(ctx context.Context) bool {
	return d.rootHSTS(ctx).PreloadReady
}

func (d *Domain) rootHSTS(ctx context.Context) HSTS {
	if e := d.Endpoint(true, false); e != nil {
		return e.HSTS(ctx)
	}
	return HSTS{}
}

// redirectsInternallyTo looks at the first hop only: the immediate redirect
// target must stay on this domain and have the given shape. Where the chain
// ends afterwards does not matter.
func (e *Endpoint) redirectsInternallyTo(ctx context.Context, shape func(*Endpoint) bool) bool {
	t := e.Redirect(ctx)
	return t != nil && apexHost(t.Hostname()) == apexHost(e.Hostname()) && shape(t)
}

func (d *Domain) any(ctx context.Context, endpoints []*Endpoint, pred func(*Endpoint, context.Context) bool) bool {
	for _, e := range endpoints {
		if pred(e, ctx) {
			return true
		}
	}
	return false
}

func (d *Domain) allDown(ctx context.Context, endpoints []*Endpoint) bool {
	return !d.any(ctx, endpoints, (*Endpoint).Up)
}

func (d *Domain) filter(keep func(*Endpoint) bool) []*Endpoint {
	var out []*Endpoint
	for _, e := range d.endpoints {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (d *Domain) httpsEndpoints() []*Endpoint { return d.filter((*Endpoint).IsHTTPS) }

func (d *Domain) httpEndpoints() []*Endpoint { return d.filter((*Endpoint).IsHTTP) }

func (d *Domain) wwwEndpoints() []*Endpoint { return d.filter((*Endpoint).IsWWW) }

func (d *Domain) rootEndpoints() []*Endpoint { return d.filter((*Endpoint).IsRoot) }
