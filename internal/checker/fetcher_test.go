package checker

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/khanhnv2901/site-inspector/internal/domain/site"
	"github.com/khanhnv2901/site-inspector/internal/infrastructure/fetch"
)

type route func(req fetch.Request) *fetch.Response

// fakeFetcher answers from a route table keyed by URL; everything else gets fallback.
type fakeFetcher struct {
	mu       sync.Mutex
	routes   map[string]route
	fallback route
	calls    []fetch.Request
	batches  int
}

func newFakeFetcher(fallback route) *fakeFetcher {
	return &fakeFetcher{routes: make(map[string]route), fallback: fallback}
}

func (f *fakeFetcher) on(url string, r route) *fakeFetcher {
	f.routes[url] = r
	return f
}

func (f *fakeFetcher) Do(ctx context.Context, req fetch.Request) *fetch.Response {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	r, ok := f.routes[req.URL]
	f.mu.Unlock()
	if !ok {
		r = f.fallback
	}
	return r(req)
}

func (f *fakeFetcher) RunBatch(ctx context.Context, reqs []fetch.Request) []*fetch.Response {
	f.mu.Lock()
	f.batches++
	f.mu.Unlock()

	out := make([]*fetch.Response, len(reqs))
	for i, req := range reqs {
		out[i] = f.Do(ctx, req)
	}
	return out
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.URL == url {
			n++
		}
	}
	return n
}

func status(code int, headers ...string) route {
	return func(req fetch.Request) *fetch.Response {
		h := http.Header{}
		for i := 0; i+1 < len(headers); i += 2 {
			h.Set(headers[i], headers[i+1])
		}
		return &fetch.Response{URL: req.URL, StatusCode: code, Header: h, ReturnCode: fetch.ReturnOK}
	}
}

func page(body string) route {
	return func(req fetch.Request) *fetch.Response {
		resp := status(200, "Content-Type", "text/html; charset=utf-8")(req)
		if req.Options.Method == http.MethodGet {
			resp.Body = []byte(body)
		}
		return resp
	}
}

func newTarget(t *testing.T, uri string, f site.Fetcher) *Target {
	t.Helper()
	e, err := site.NewEndpoint(uri, f, site.Config{})
	if err != nil {
		t.Fatalf("NewEndpoint(%q): %v", uri, err)
	}
	return NewTarget(e)
}
