package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/khanhnv2901/site-inspector/internal/shared/constants"
)

// versionSSL30 represents the legacy SSL 3.0 protocol version (0x0300).
const versionSSL30 uint16 = 0x0300

// maxFollowedRedirects bounds FollowLocation requests.
const maxFollowedRedirects = 10

var errNoPeerCertificate = errors.New("tls: server presented no certificate")

// Transport issues a single request. Implementations never fail: every network
// or TLS problem is encoded in the returned Response.
type Transport interface {
	RoundTrip(ctx context.Context, req Request) *Response
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) *Response

func (f TransportFunc) RoundTrip(ctx context.Context, req Request) *Response {
	return f(ctx, req)
}

// HTTPTransportConfig configures HTTPTransport.
type HTTPTransportConfig struct {
	UserAgent string
	// RootCAs overrides the system roots; nil uses the host's trust store.
	RootCAs *x509.CertPool
	// BodyLimit caps how many body bytes GET requests keep.
	BodyLimit int64
}

// HTTPTransport implements Transport with net/http. One http.Transport is kept
// per verification mode so connections are never shared across TLS policies.
type HTTPTransport struct {
	cfg HTTPTransportConfig

	mu         sync.Mutex
	transports map[[2]bool]*http.Transport
}

// NewHTTPTransport creates a transport with the given configuration.
func NewHTTPTransport(cfg HTTPTransportConfig) *HTTPTransport {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = constants.BodyLimitBytes
	}
	return &HTTPTransport{
		cfg:        cfg,
		transports: make(map[[2]bool]*http.Transport),
	}
}

// RoundTrip performs the request described by req.
func (t *HTTPTransport) RoundTrip(ctx context.Context, req Request) *Response {
	result := &Response{URL: req.URL}
	opts := req.Options
	if opts.Method == "" {
		opts.Method = http.MethodHead
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultRequestTimeout
	}

	client := &http.Client{
		Transport: t.transportFor(opts.VerifyPeer, opts.VerifyHost),
		Timeout:   opts.Timeout,
		CheckRedirect: func(r *http.Request, via []*http.Request) error {
			if !opts.FollowLocation || len(via) >= maxFollowedRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	httpReq, err := http.NewRequestWithContext(ctx, opts.Method, req.URL, nil)
	if err != nil {
		result.ReturnCode = ReturnError
		result.Error = fmt.Sprintf("create request: %v", err)
		return result
	}
	if t.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", t.cfg.UserAgent)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		result.ReturnCode, result.TimedOut = classifyError(err)
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	result.ReturnCode = ReturnOK
	result.StatusCode = resp.StatusCode
	result.Header = resp.Header.Clone()
	if resp.Request != nil && resp.Request.URL != nil {
		result.EffectiveURL = resp.Request.URL.String()
	}
	if resp.TLS != nil {
		result.TLS = tlsInfo(resp.TLS)
	}

	if opts.Method == http.MethodGet {
		body, err := io.ReadAll(io.LimitReader(resp.Body, t.cfg.BodyLimit))
		if err != nil {
			// Partial bodies are fine for content checks.
			result.Error = fmt.Sprintf("read body: %v", err)
		}
		result.Body = body
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	return result
}

func (t *HTTPTransport) transportFor(verifyPeer, verifyHost bool) *http.Transport {
	key := [2]bool{verifyPeer, verifyHost}

	t.mu.Lock()
	defer t.mu.Unlock()
	if tr, ok := t.transports[key]; ok {
		return tr
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = t.tlsConfig(verifyPeer, verifyHost)
	tr.IdleConnTimeout = 30 * time.Second
	t.transports[key] = tr
	return tr
}

// tlsConfig builds the client TLS policy. Partial verification skips the
// standard handshake checks and re-applies only the requested half in
// VerifyConnection so the x509 error type still identifies the failure.
func (t *HTTPTransport) tlsConfig(verifyPeer, verifyHost bool) *tls.Config {
	roots := t.cfg.RootCAs
	switch {
	case verifyPeer && verifyHost:
		return &tls.Config{RootCAs: roots}
	case verifyPeer:
		return &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // chain is verified in VerifyConnection
			VerifyConnection: func(cs tls.ConnectionState) error {
				return verifyChain(cs, roots)
			},
		}
	case verifyHost:
		return &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // hostname is verified in VerifyConnection
			VerifyConnection: func(cs tls.ConnectionState) error {
				if len(cs.PeerCertificates) == 0 {
					return errNoPeerCertificate
				}
				return cs.PeerCertificates[0].VerifyHostname(cs.ServerName)
			},
		}
	default:
		return &tls.Config{InsecureSkipVerify: true} //nolint:gosec // fully relaxed probe is intentional
	}
}

func verifyChain(cs tls.ConnectionState, roots *x509.CertPool) error {
	if len(cs.PeerCertificates) == 0 {
		return errNoPeerCertificate
	}
	intermediates := x509.NewCertPool()
	for _, cert := range cs.PeerCertificates[1:] {
		intermediates.AddCert(cert)
	}
	_, err := cs.PeerCertificates[0].Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
	})
	return err
}

// classifyError maps a client error onto a ReturnCode.
func classifyError(err error) (ReturnCode, bool) {
	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return ReturnPeerVerification, false
	}

	var authErr x509.UnknownAuthorityError
	var invalidErr x509.CertificateInvalidError
	var rootsErr x509.SystemRootsError
	if errors.As(err, &authErr) || errors.As(err, &invalidErr) || errors.As(err, &rootsErr) {
		return ReturnSSLCACert, false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ReturnTimedOut, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReturnTimedOut, true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReturnResolveHost, false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ReturnConnect, false
	}

	return ReturnError, false
}

func tlsInfo(cs *tls.ConnectionState) *TLSInfo {
	info := &TLSInfo{
		Version:     tlsVersionString(cs.Version),
		CipherSuite: cipherSuiteString(cs.CipherSuite),
	}
	if len(cs.PeerCertificates) > 0 {
		cert := cs.PeerCertificates[0]
		info.Subject = cert.Subject.CommonName
		info.Issuer = cert.Issuer.CommonName
		info.NotAfter = cert.NotAfter.UTC()
	}
	return info
}

func tlsVersionString(version uint16) string {
	switch version {
	case versionSSL30:
		return "SSL 3.0"
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("Unknown (0x%04x)", version)
	}
}

func cipherSuiteString(suite uint16) string {
	if name := tls.CipherSuiteName(suite); name != "" {
		return name
	}
	return fmt.Sprintf("Unknown (0x%04x)", suite)
}
