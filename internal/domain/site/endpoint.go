package site

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/khanhnv2901/site-inspector/internal/infrastructure/fetch"
	sharedErrors "github.com/khanhnv2901/site-inspector/internal/shared/errors"
)

// Fetcher issues requests. *fetch.Scheduler satisfies it.
type Fetcher interface {
	Do(ctx context.Context, req fetch.Request) *fetch.Response
	RunBatch(ctx context.Context, reqs []fetch.Request) []*fetch.Response
}

// Config controls how endpoints probe.
type Config struct {
	// Timeout for every probe; zero defers to the fetcher's default.
	Timeout time.Duration
	// ProbeMethod for the initial endpoint probe. HEAD when empty.
	ProbeMethod string
}

func (c Config) probeMethod() string {
	if c.ProbeMethod == "" {
		return http.MethodHead
	}
	return strings.ToUpper(c.ProbeMethod)
}

// Endpoint is one (scheme, host) probe target, e.g. https://www.example.com/.
// Every derived field is computed once and memoized for the lifetime of the
// Endpoint; a fresh evaluation needs a fresh Endpoint.
type Endpoint struct {
	uri     *url.URL
	host    string
	www     bool
	domain  *Domain
	fetcher Fetcher
	cfg     Config

	probe      lazy[probeResult]
	redirect   lazy[*Endpoint]
	resolvesTo lazy[*Endpoint]
	content    lazy[*fetch.Response]
	hsts       lazy[HSTS]
}

// NewEndpoint creates an unowned endpoint. The path is always normalized to "/".
func NewEndpoint(rawURI string, fetcher Fetcher, cfg Config) (*Endpoint, error) {
	u, err := url.Parse(strings.ToLower(strings.TrimSpace(rawURI)))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", sharedErrors.ErrInvalidURI, rawURI, err)
	}
	e, ok := newEndpoint(u, nil, fetcher, cfg)
	if !ok {
		return nil, fmt.Errorf("%w: %q", sharedErrors.ErrInvalidURI, rawURI)
	}
	return e, nil
}

func newEndpoint(u *url.URL, domain *Domain, fetcher Fetcher, cfg Config) (*Endpoint, bool) {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if (scheme != "http" && scheme != "https") || host == "" {
		return nil, false
	}
	return &Endpoint{
		uri:     &url.URL{Scheme: scheme, Host: host, Path: "/"},
		host:    host,
		www:     isWWWHost(host),
		domain:  domain,
		fetcher: fetcher,
		cfg:     cfg,
	}, true
}

// URI is the endpoint's absolute URI, always ending in "/".
func (e *Endpoint) URI() string { return e.uri.String() }

func (e *Endpoint) String() string { return e.URI() }

// Host is the lowercase host (including a port, if any).
func (e *Endpoint) Host() string { return e.host }

func (e *Endpoint) Scheme() string { return e.uri.Scheme }

func (e *Endpoint) IsHTTPS() bool { return e.uri.Scheme == "https" }

func (e *Endpoint) IsHTTP() bool { return !e.IsHTTPS() }

func (e *Endpoint) IsWWW() bool { return e.www }

func (e *Endpoint) IsRoot() bool { return !e.www }

// Apex is the host without port or a leading "www.".
func (e *Endpoint) Apex() string { return apexHost(hostname(e.host)) }

// Hostname is the host without port.
func (e *Endpoint) Hostname() string { return hostname(e.host) }

// Fetcher is the fetcher the endpoint probes through.
func (e *Endpoint) Fetcher() Fetcher { return e.fetcher }

// Domain is the owning domain, nil for endpoints created while following redirects.
func (e *Endpoint) Domain() *Domain { return e.domain }

// Response is the endpoint's settled probe response. For HTTPS endpoints with
// certificate problems it is the response of the relaxed re-probe.
func (e *Endpoint) Response(ctx context.Context) *fetch.Response {
	return e.settle(ctx).response
}

// StatusCode is the HTTP status, 0 when nothing answered.
func (e *Endpoint) StatusCode(ctx context.Context) int {
	if resp := e.Response(ctx); resp != nil {
		return resp.StatusCode
	}
	return 0
}

// Up reports a 2xx or 3xx status.
func (e *Endpoint) Up(ctx context.Context) bool {
	code := e.StatusCode(ctx)
	return code >= 200 && code < 400
}

// Responds reports whether anything answered in time.
func (e *Endpoint) Responds(ctx context.Context) bool {
	return e.StatusCode(ctx) != 0 && !e.TimedOut(ctx)
}

func (e *Endpoint) TimedOut(ctx context.Context) bool {
	resp := e.Response(ctx)
	return resp != nil && resp.TimedOut
}

// Headers of the settled response; never nil.
func (e *Endpoint) Headers(ctx context.Context) http.Header {
	if resp := e.Response(ctx); resp != nil && resp.Header != nil {
		return resp.Header
	}
	return http.Header{}
}

// HTTPS is the TLS classification. For http endpoints Scheme is false.
func (e *Endpoint) HTTPS(ctx context.Context) HTTPSState {
	return e.settle(ctx).https
}

// HSTS parses the endpoint's Strict-Transport-Security header.
func (e *Endpoint) HSTS(ctx context.Context) HSTS {
	return e.hsts.get(func() HSTS {
		return ParseHSTS(e.Response(ctx).HeaderValue("Strict-Transport-Security"))
	})
}

// Content is a full GET of the endpoint following redirects.
func (e *Endpoint) Content(ctx context.Context) *fetch.Response {
	return e.content.get(func() *fetch.Response {
		req, _ := e.BuildRequest(ctx, "", http.MethodGet, true)
		return e.fetcher.Do(ctx, req)
	})
}

// BuildRequest prepares a request for path relative to the endpoint, with the
// TLS verification that produced the endpoint's usable response.
func (e *Endpoint) BuildRequest(ctx context.Context, path, method string, follow bool) (fetch.Request, error) {
	target := e.uri
	if path != "" {
		ref, err := url.Parse(path)
		if err != nil {
			return fetch.Request{}, fmt.Errorf("%w: path %q: %v", sharedErrors.ErrInvalidURI, path, err)
		}
		target = e.uri.ResolveReference(ref)
	}

	opts := e.settle(ctx).usable
	opts.Method = method
	opts.FollowLocation = follow
	return fetch.Request{URL: target.String(), Options: opts}, nil
}

// Request issues a single request for path relative to the endpoint.
func (e *Endpoint) Request(ctx context.Context, path, method string, follow bool) (*fetch.Response, error) {
	req, err := e.BuildRequest(ctx, path, method, follow)
	if err != nil {
		return nil, err
	}
	return e.fetcher.Do(ctx, req), nil
}

// RunBatch issues reqs as one bounded batch through the endpoint's fetcher.
func (e *Endpoint) RunBatch(ctx context.Context, reqs []fetch.Request) []*fetch.Response {
	return e.fetcher.RunBatch(ctx, reqs)
}

// initialRequest is the strict header probe every endpoint starts with.
func (e *Endpoint) initialRequest() fetch.Request {
	opts := fetch.DefaultOptions()
	opts.Method = e.cfg.probeMethod()
	opts.Timeout = e.cfg.Timeout
	return fetch.Request{URL: e.URI(), Options: opts}
}

// sameAs reports whether u names this endpoint (scheme and host match).
func (e *Endpoint) sameAs(scheme, host string) bool {
	return e.uri.Scheme == scheme && e.host == host
}
