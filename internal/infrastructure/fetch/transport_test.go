package fetch

import (
	"context"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestHTTPTransport_HeadProbeDoesNotFollow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD probe, got %s", r.Method)
		}
		if r.UserAgent() != "test-agent" {
			t.Errorf("expected user agent to be sent, got %q", r.UserAgent())
		}
		http.Redirect(w, r, "/elsewhere", http.StatusMovedPermanently)
	}))
	defer server.Close()

	tr := NewHTTPTransport(HTTPTransportConfig{UserAgent: "test-agent"})
	resp := tr.RoundTrip(context.Background(), NewRequest(server.URL+"/"))

	if resp.ReturnCode != ReturnOK {
		t.Fatalf("expected ok, got %s (%s)", resp.ReturnCode, resp.Error)
	}
	if resp.StatusCode != http.StatusMovedPermanently {
		t.Errorf("expected 301, got %d", resp.StatusCode)
	}
	if resp.HeaderValue("Location") != "/elsewhere" {
		t.Errorf("unexpected Location %q", resp.HeaderValue("Location"))
	}
}

func TestHTTPTransport_FollowLocationReportsEffectiveURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<!DOCTYPE html><html></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tr := NewHTTPTransport(HTTPTransportConfig{})
	req := NewRequest(server.URL + "/")
	req.Options.Method = http.MethodGet
	req.Options.FollowLocation = true
	resp := tr.RoundTrip(context.Background(), req)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after following, got %d", resp.StatusCode)
	}
	if !strings.HasSuffix(resp.EffectiveURL, "/final") {
		t.Errorf("expected effective URL to end with /final, got %s", resp.EffectiveURL)
	}
	if !strings.Contains(string(resp.Body), "DOCTYPE") {
		t.Errorf("expected GET body to be captured, got %q", resp.Body)
	}
}

func TestHTTPTransport_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	tr := NewHTTPTransport(HTTPTransportConfig{})
	req := NewRequest(server.URL + "/")
	req.Options.Timeout = 50 * time.Millisecond
	resp := tr.RoundTrip(context.Background(), req)

	if !resp.TimedOut || resp.ReturnCode != ReturnTimedOut {
		t.Errorf("expected timeout, got %s timed_out=%v", resp.ReturnCode, resp.TimedOut)
	}
	if resp.StatusCode != 0 {
		t.Errorf("expected no status code, got %d", resp.StatusCode)
	}
}

func TestHTTPTransport_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	tr := NewHTTPTransport(HTTPTransportConfig{})
	resp := tr.RoundTrip(context.Background(), NewRequest("http://"+addr+"/"))

	if resp.ReturnCode != ReturnConnect {
		t.Errorf("expected %s, got %s (%s)", ReturnConnect, resp.ReturnCode, resp.Error)
	}
}

func TestHTTPTransport_TLSClassification(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000")
	}))
	defer server.Close()

	u, _ := url.Parse(server.URL)
	_, port, _ := net.SplitHostPort(u.Host)
	byIP := "https://127.0.0.1:" + port + "/"
	byName := "https://localhost:" + port + "/"

	trusted := x509.NewCertPool()
	trusted.AddCert(server.Certificate())

	tests := []struct {
		name       string
		roots      *x509.CertPool
		url        string
		verifyPeer bool
		verifyHost bool
		want       ReturnCode
	}{
		{name: "untrusted chain", url: byIP, verifyPeer: true, verifyHost: true, want: ReturnSSLCACert},
		{name: "trusted chain", roots: trusted, url: byIP, verifyPeer: true, verifyHost: true, want: ReturnOK},
		{name: "name mismatch", roots: trusted, url: byName, verifyPeer: true, verifyHost: true, want: ReturnPeerVerification},
		{name: "name mismatch chain only", roots: trusted, url: byName, verifyPeer: true, verifyHost: false, want: ReturnOK},
		{name: "untrusted chain host only", url: byIP, verifyPeer: false, verifyHost: true, want: ReturnOK},
		{name: "untrusted chain peer only", url: byIP, verifyPeer: true, verifyHost: false, want: ReturnSSLCACert},
		{name: "name mismatch host only", url: byName, verifyPeer: false, verifyHost: true, want: ReturnPeerVerification},
		{name: "relaxed", url: byName, verifyPeer: false, verifyHost: false, want: ReturnOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tr := NewHTTPTransport(HTTPTransportConfig{RootCAs: tt.roots})
			req := NewRequest(tt.url)
			req.Options.VerifyPeer = tt.verifyPeer
			req.Options.VerifyHost = tt.verifyHost
			resp := tr.RoundTrip(context.Background(), req)

			if resp.ReturnCode != tt.want {
				t.Fatalf("expected %s, got %s (%s)", tt.want, resp.ReturnCode, resp.Error)
			}
			if tt.want == ReturnOK {
				if resp.TLS == nil || resp.TLS.Version == "" {
					t.Error("expected TLS details on successful HTTPS response")
				}
				if resp.HeaderValue("Strict-Transport-Security") == "" {
					t.Error("expected HSTS header to be captured")
				}
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    ReturnCode
		timeout bool
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: ReturnTimedOut, timeout: true},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "nope.invalid"}, want: ReturnResolveHost},
		{name: "dial", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: ReturnConnect},
		{name: "hostname", err: &url.Error{Op: "Get", URL: "https://x", Err: x509.HostnameError{Host: "x"}}, want: ReturnPeerVerification},
		{name: "authority", err: x509.UnknownAuthorityError{}, want: ReturnSSLCACert},
		{name: "other", err: errors.New("boom"), want: ReturnError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, timedOut := classifyError(tt.err)
			if got != tt.want || timedOut != tt.timeout {
				t.Errorf("expected (%s, %v), got (%s, %v)", tt.want, tt.timeout, got, timedOut)
			}
		})
	}
}
