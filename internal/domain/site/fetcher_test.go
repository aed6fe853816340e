package site

import (
	"context"
	"net/http"
	"sync"

	"github.com/khanhnv2901/site-inspector/internal/infrastructure/fetch"
)

type route func(req fetch.Request) *fetch.Response

// fakeFetcher answers from a route table keyed by URL. Unknown URLs fail to resolve.
type fakeFetcher struct {
	mu     sync.Mutex
	routes map[string]route
	calls  []fetch.Request
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{routes: make(map[string]route)}
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
		return down(req)
	}
	return r(req)
}

func (f *fakeFetcher) RunBatch(ctx context.Context, reqs []fetch.Request) []*fetch.Response {
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

func (f *fakeFetcher) requests() []fetch.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetch.Request(nil), f.calls...)
}

func down(req fetch.Request) *fetch.Response {
	return &fetch.Response{URL: req.URL, ReturnCode: fetch.ReturnResolveHost}
}

func ok(status int, headers ...string) route {
	return func(req fetch.Request) *fetch.Response {
		h := http.Header{}
		for i := 0; i+1 < len(headers); i += 2 {
			h.Set(headers[i], headers[i+1])
		}
		return &fetch.Response{URL: req.URL, StatusCode: status, Header: h, ReturnCode: fetch.ReturnOK}
	}
}

func redirectTo(location string) route {
	return ok(http.StatusMovedPermanently, "Location", location)
}

// redirectChain redirects to location and reports final as the effective URL
// when the request follows redirects.
func redirectChain(location, final string) route {
	return func(req fetch.Request) *fetch.Response {
		if req.Options.FollowLocation {
			return &fetch.Response{URL: req.URL, StatusCode: 200, ReturnCode: fetch.ReturnOK, EffectiveURL: final}
		}
		return redirectTo(location)(req)
	}
}

func timeout() route {
	return func(req fetch.Request) *fetch.Response {
		return &fetch.Response{URL: req.URL, ReturnCode: fetch.ReturnTimedOut, TimedOut: true}
	}
}

// tlsFailure fails with code unless the request disables the verification
// that code is about.
func tlsFailure(badChain, badName bool, next route) route {
	return func(req fetch.Request) *fetch.Response {
		if badChain && req.Options.VerifyPeer {
			return &fetch.Response{URL: req.URL, ReturnCode: fetch.ReturnSSLCACert}
		}
		if badName && req.Options.VerifyHost {
			return &fetch.Response{URL: req.URL, ReturnCode: fetch.ReturnPeerVerification}
		}
		return next(req)
	}
}
