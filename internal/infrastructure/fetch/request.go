package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ReturnCode is the low-level completion status of a probe. Network and TLS
// failures are reported through it instead of through Go errors.
type ReturnCode string

const (
	ReturnOK               ReturnCode = "ok"
	ReturnSSLCACert        ReturnCode = "ssl_cacert"
	ReturnPeerVerification ReturnCode = "peer_failed_verification"
	ReturnTimedOut         ReturnCode = "operation_timedout"
	ReturnResolveHost      ReturnCode = "couldnt_resolve_host"
	ReturnConnect          ReturnCode = "couldnt_connect"
	ReturnError            ReturnCode = "error"
)

// Options describe how a single request is issued.
type Options struct {
	Method         string
	Timeout        time.Duration
	FollowLocation bool
	// VerifyPeer checks the certificate chain against the system roots.
	VerifyPeer bool
	// VerifyHost checks the certificate against the requested hostname.
	VerifyHost bool
}

// DefaultOptions is a header-only probe with full TLS verification.
func DefaultOptions() Options {
	return Options{
		Method:     http.MethodHead,
		VerifyPeer: true,
		VerifyHost: true,
	}
}

// Request is one queued HTTP request descriptor.
type Request struct {
	URL     string
	Options Options
}

// NewRequest builds a request with DefaultOptions.
func NewRequest(url string) Request {
	return Request{URL: url, Options: DefaultOptions()}
}

// Fingerprint is the cache key for the request. Timeout is not part of it: a
// response does not depend on how long we were willing to wait for it.
func (r Request) Fingerprint() string {
	method := strings.ToUpper(r.Options.Method)
	if method == "" {
		method = http.MethodHead
	}
	parts := []string{
		method,
		r.URL,
		"follow=" + strconv.FormatBool(r.Options.FollowLocation),
		"verifypeer=" + strconv.FormatBool(r.Options.VerifyPeer),
		"verifyhost=" + strconv.FormatBool(r.Options.VerifyHost),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])
}

// TLSInfo captures the negotiated connection parameters of an HTTPS response.
type TLSInfo struct {
	Version     string    `json:"version"`
	CipherSuite string    `json:"cipher_suite"`
	Subject     string    `json:"subject,omitempty"`
	Issuer      string    `json:"issuer,omitempty"`
	NotAfter    time.Time `json:"not_after,omitempty"`
}

// Response is the settled result of a request. A zero StatusCode means no
// HTTP response was received.
type Response struct {
	URL          string      `json:"url"`
	StatusCode   int         `json:"status_code"`
	Header       http.Header `json:"headers,omitempty"`
	Body         []byte      `json:"body,omitempty"`
	EffectiveURL string      `json:"effective_url,omitempty"`
	ReturnCode   ReturnCode  `json:"return_code"`
	TimedOut     bool        `json:"timed_out"`
	Error        string      `json:"error,omitempty"`
	TLS          *TLSInfo    `json:"tls,omitempty"`
}

// Success reports a 2xx status.
func (r *Response) Success() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// HeaderValue returns the first value for name, matched case-insensitively.
func (r *Response) HeaderValue(name string) string {
	if r == nil || r.Header == nil {
		return ""
	}
	if v := r.Header.Get(name); v != "" {
		return v
	}
	for k, vals := range r.Header {
		if strings.EqualFold(k, name) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// HasHeader reports whether name is present at all, even with an empty value.
func (r *Response) HasHeader(name string) bool {
	if r == nil {
		return false
	}
	for k := range r.Header {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
