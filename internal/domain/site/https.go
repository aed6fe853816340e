package site

import (
	"context"

	"github.com/khanhnv2901/site-inspector/internal/infrastructure/fetch"
)

// Validity is the TLS classification of an HTTPS endpoint.
type Validity string

const (
	ValidityNone     Validity = ""
	ValidityValid    Validity = "valid"
	ValidityBadChain Validity = "bad_chain"
	ValidityBadName  Validity = "bad_name"
	ValidityUnknown  Validity = "unknown"
)

// HTTPSState describes how an endpoint's TLS handshake went. BadChain and
// BadName may both be set when the escalation found a compounding failure.
type HTTPSState struct {
	Scheme     bool             `json:"scheme"`
	Validity   Validity         `json:"validity,omitempty"`
	ReturnCode fetch.ReturnCode `json:"return_code,omitempty"`
	BadChain   bool             `json:"bad_chain"`
	BadName    bool             `json:"bad_name"`
	TLS        *fetch.TLSInfo   `json:"tls,omitempty"`
}

// Valid reports a fully verified HTTPS connection.
func (s HTTPSState) Valid() bool {
	return s.Scheme && s.Validity == ValidityValid
}

type probeResult struct {
	response *fetch.Response
	https    HTTPSState
	// usable are the options that produced response; follow-up requests reuse them.
	usable fetch.Options
}

func (e *Endpoint) settle(ctx context.Context) probeResult {
	return e.probe.get(func() probeResult {
		req := e.initialRequest()
		return e.classify(ctx, req, orNoResponse(req, e.fetcher.Do(ctx, req)))
	})
}

// seed settles the endpoint from an already fetched initial response.
func (e *Endpoint) seed(ctx context.Context, resp *fetch.Response) {
	e.probe.get(func() probeResult {
		req := e.initialRequest()
		return e.classify(ctx, req, orNoResponse(req, resp))
	})
}

// classify derives the HTTPS state from the initial probe and, for certificate
// failures, re-probes with one verification relaxed at a time. A single return
// code cannot tell an untrusted chain from a wrong name when both are broken,
// so each relaxed probe checks for the other failure.
func (e *Endpoint) classify(ctx context.Context, req fetch.Request, resp *fetch.Response) probeResult {
	result := probeResult{response: resp, usable: req.Options}
	if !e.IsHTTPS() {
		return result
	}

	state := HTTPSState{Scheme: true, ReturnCode: resp.ReturnCode}
	switch resp.ReturnCode {
	case fetch.ReturnOK:
		state.Validity = ValidityValid
	case fetch.ReturnSSLCACert:
		state.Validity = ValidityBadChain
		state.BadChain = true
		result.response, result.usable = e.escalate(ctx, req, false, true, fetch.ReturnPeerVerification, &state.BadName)
	case fetch.ReturnPeerVerification:
		state.Validity = ValidityBadName
		state.BadName = true
		result.response, result.usable = e.escalate(ctx, req, true, false, fetch.ReturnSSLCACert, &state.BadChain)
	default:
		state.Validity = ValidityUnknown
	}

	if result.response != nil {
		state.TLS = result.response.TLS
	}
	result.https = state
	return result
}

// escalate re-probes with the given verification flags. If that probe fails
// with compound, the second failure is recorded and a fully relaxed probe
// provides the usable response.
func (e *Endpoint) escalate(ctx context.Context, base fetch.Request, verifyPeer, verifyHost bool, compound fetch.ReturnCode, flag *bool) (*fetch.Response, fetch.Options) {
	retry := base
	retry.Options.VerifyPeer = verifyPeer
	retry.Options.VerifyHost = verifyHost
	resp := orNoResponse(retry, e.fetcher.Do(ctx, retry))
	if resp.ReturnCode != compound {
		return resp, retry.Options
	}

	*flag = true
	relaxed := base
	relaxed.Options.VerifyPeer = false
	relaxed.Options.VerifyHost = false
	return orNoResponse(relaxed, e.fetcher.Do(ctx, relaxed)), relaxed.Options
}

func orNoResponse(req fetch.Request, resp *fetch.Response) *fetch.Response {
	if resp != nil {
		return resp
	}
	return &fetch.Response{URL: req.URL, ReturnCode: fetch.ReturnError}
}
