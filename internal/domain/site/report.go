package site

import "context"

// CheckFunc computes extra facts for an endpoint, keyed by check name.
type CheckFunc func(ctx context.Context, e *Endpoint) map[string]any

// ReportOptions control how much of a domain is serialized.
type ReportOptions struct {
	// All adds every endpoint to the report, not just the canonical one.
	All    bool
	Checks CheckFunc
}

// EndpointReport is the JSON form of an endpoint's settled state.
type EndpointReport struct {
	URI              string         `json:"uri"`
	Host             string         `json:"host"`
	WWW              bool           `json:"www"`
	Root             bool           `json:"root"`
	HTTPS            bool           `json:"https"`
	Scheme           string         `json:"scheme"`
	Up               bool           `json:"up"`
	Responds         bool           `json:"responds"`
	TimedOut         bool           `json:"timed_out"`
	StatusCode       int            `json:"status_code"`
	Redirect         bool           `json:"redirect"`
	RedirectTo       string         `json:"redirect_to,omitempty"`
	ResolvesTo       string         `json:"resolves_to"`
	ExternalRedirect bool           `json:"external_redirect"`
	TLS              *HTTPSState    `json:"tls,omitempty"`
	Checks           map[string]any `json:"checks,omitempty"`
}

// SchemeReports holds the root and www endpoint of one scheme.
type SchemeReports struct {
	Root *EndpointReport `json:"root"`
	WWW  *EndpointReport `json:"www"`
}

// EndpointsReport is the per-endpoint tree of a domain.
type EndpointsReport struct {
	HTTPS SchemeReports `json:"https"`
	HTTP  SchemeReports `json:"http"`
}

// DomainReport is the JSON form of a domain's conclusions. CanonicalEndpoint
// is null when the canonical shape matches no endpoint.
type DomainReport struct {
	Host              string           `json:"host"`
	Up                bool             `json:"up"`
	Responds          bool             `json:"responds"`
	WWW               bool             `json:"www"`
	Root              bool             `json:"root"`
	HTTPS             bool             `json:"https"`
	EnforcesHTTPS     bool             `json:"enforces_https"`
	DowngradesHTTPS   bool             `json:"downgrades_https"`
	CanonicallyWWW    bool             `json:"canonically_www"`
	CanonicallyHTTPS  bool             `json:"canonically_https"`
	RedirectsAway     bool             `json:"redirect"`
	RedirectTo        string           `json:"redirect_to,omitempty"`
	HSTS              bool             `json:"hsts"`
	HSTSSubdomains    bool             `json:"hsts_subdomains"`
	HSTSPreloadReady  bool             `json:"hsts_preload_ready"`
	CanonicalEndpoint *EndpointReport  `json:"canonical_endpoint"`
	Endpoints         *EndpointsReport `json:"endpoints,omitempty"`
}

// Report prefetches the domain and serializes it.
func (d *Domain) Report(ctx context.Context, opts ReportOptions) *DomainReport {
	d.Prefetch(ctx)

	r := &DomainReport{
		Host:             d.host,
		Up:               d.Up(ctx),
		Responds:         d.Responds(ctx),
		WWW:              d.WWW(ctx),
		Root:             d.Root(ctx),
		HTTPS:            d.HTTPS(ctx),
		EnforcesHTTPS:    d.EnforcesHTTPS(ctx),
		DowngradesHTTPS:  d.DowngradesHTTPS(ctx),
		CanonicallyWWW:   d.CanonicallyWWW(ctx),
		CanonicallyHTTPS: d.CanonicallyHTTPS(ctx),
		RedirectsAway:    d.RedirectsAway(ctx),
		HSTS:             d.HSTS(ctx),
		HSTSSubdomains:   d.HSTSSubdomains(ctx),
		HSTSPreloadReady: d.HSTSPreloadReady(ctx),
	}
	if target := d.Redirect(ctx); target != nil {
		r.RedirectTo = target.URI()
	}

	canonical := d.CanonicalEndpoint(ctx)
	reports := make(map[*Endpoint]*EndpointReport, len(d.endpoints))
	if canonical != nil {
		reports[canonical] = canonical.Report(ctx, opts.Checks)
		r.CanonicalEndpoint = reports[canonical]
	}

	if opts.All {
		get := func(https, www bool) *EndpointReport {
			e := d.Endpoint(https, www)
			if e == nil {
				return nil
			}
			if rep, ok := reports[e]; ok {
				return rep
			}
			return e.Report(ctx, opts.Checks)
		}
		r.Endpoints = &EndpointsReport{
			HTTPS: SchemeReports{Root: get(true, false), WWW: get(true, true)},
			HTTP:  SchemeReports{Root: get(false, false), WWW: get(false, true)},
		}
	}
	return r
}

// Report serializes the endpoint; checks may be nil.
func (e *Endpoint) Report(ctx context.Context, checks CheckFunc) *EndpointReport {
	r := &EndpointReport{
		URI:              e.URI(),
		Host:             e.host,
		WWW:              e.IsWWW(),
		Root:             e.IsRoot(),
		HTTPS:            e.IsHTTPS(),
		Scheme:           e.Scheme(),
		Up:               e.Up(ctx),
		Responds:         e.Responds(ctx),
		TimedOut:         e.TimedOut(ctx),
		StatusCode:       e.StatusCode(ctx),
		ResolvesTo:       e.ResolvesTo(ctx).URI(),
		ExternalRedirect: e.ExternalRedirect(ctx),
	}
	if target := e.Redirect(ctx); target != nil {
		r.Redirect = true
		r.RedirectTo = target.URI()
	}
	if e.IsHTTPS() {
		state := e.HTTPS(ctx)
		r.TLS = &state
	}
	if checks != nil {
		r.Checks = checks(ctx, e)
	}
	return r
}
