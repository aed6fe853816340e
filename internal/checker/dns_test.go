package checker

import (
	"context"
	"errors"
	"net"
	"reflect"
	"testing"
	"time"
)

type fakeResolver struct {
	hosts map[string][]string
	ipv6  []net.IP
	cname string
	mx    []*net.MX
	ns    []*net.NS
	txt   []string
	ptr   []string
}

var errNoRecords = errors.New("no such host")

func (r *fakeResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if addrs, ok := r.hosts[host]; ok {
		return addrs, nil
	}
	return nil, errNoRecords
}

func (r *fakeResolver) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	if network != "ip6" {
		return nil, errors.New("unexpected network " + network)
	}
	return r.ipv6, nil
}

func (r *fakeResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	if r.cname == "" {
		return host + ".", nil
	}
	return r.cname, nil
}

func (r *fakeResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	return r.mx, nil
}

func (r *fakeResolver) LookupNS(ctx context.Context, name string) ([]*net.NS, error) {
	return r.ns, nil
}

func (r *fakeResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	return r.txt, nil
}

func (r *fakeResolver) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	return r.ptr, nil
}

func TestDNSCheck_Name(t *testing.T) {
	check := newDNSCheck(Options{DNSTimeout: 5 * time.Second})

	expected := "dns"
	if check.Name() != expected {
		t.Errorf("Expected name '%s', got '%s'", expected, check.Name())
	}
}

func TestDNSCheck_Records(t *testing.T) {
	resolver := &fakeResolver{
		hosts: map[string][]string{"www.example.com": {"93.184.216.34"}},
		ipv6:  []net.IP{net.ParseIP("2606:2800:220:1::1")},
		cname: "example.cdn.net.",
		mx:    []*net.MX{{Host: "aspmx.l.google.com.", Pref: 1}},
		ns:    []*net.NS{{Host: "a.iana-servers.net."}},
		txt:   []string{"v=spf1 -all"},
		ptr:   []string{"web.example.net."},
	}
	check := newDNSCheck(Options{Resolver: resolver})
	target := newTarget(t, "https://www.example.com:8443", newFakeFetcher(status(200)))

	facts := check.Run(context.Background(), target)

	if facts["ip"] != "93.184.216.34" {
		t.Errorf("Expected ip 93.184.216.34, got %v", facts["ip"])
	}
	if facts["ipv6"] != true {
		t.Error("Expected ipv6 support")
	}
	if facts["cname"] != "example.cdn.net." {
		t.Errorf("Unexpected cname %v", facts["cname"])
	}
	if facts["google_apps"] != true {
		t.Error("Expected google apps MX to be detected")
	}
	if !reflect.DeepEqual(facts["ns_records"], []string{"a.iana-servers.net."}) {
		t.Errorf("Unexpected ns records %v", facts["ns_records"])
	}
	if !reflect.DeepEqual(facts["txt_records"], []string{"v=spf1 -all"}) {
		t.Errorf("Unexpected txt records %v", facts["txt_records"])
	}
	if facts["hostname"] != "web.example.net." {
		t.Errorf("Unexpected hostname %v", facts["hostname"])
	}
}

func TestDNSCheck_NoRecords(t *testing.T) {
	check := newDNSCheck(Options{Resolver: &fakeResolver{}})
	facts := check.Run(context.Background(), newTarget(t, "https://missing.example", newFakeFetcher(status(200))))

	if facts["error"] != "no A records found" {
		t.Errorf("Expected lookup error, got %v", facts)
	}
}

func TestDNSCheck_Localhost(t *testing.T) {
	resolver := &fakeResolver{hosts: map[string][]string{"localhost": {"127.0.0.1"}}}
	facts := newDNSCheck(Options{Resolver: resolver}).Run(context.Background(), newTarget(t, "http://localhost", newFakeFetcher(status(200))))

	if facts["localhost"] != true {
		t.Errorf("Expected localhost flag, got %v", facts)
	}
	if _, ok := facts["ipv6"]; ok {
		t.Error("Expected lookups to stop at localhost")
	}
}
