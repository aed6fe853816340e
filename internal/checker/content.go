package checker

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/khanhnv2901/site-inspector/internal/domain/site"
	"github.com/khanhnv2901/site-inspector/internal/infrastructure/fetch"
	"github.com/khanhnv2901/site-inspector/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/site-inspector/internal/shared/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// contentPaths maps each reported file to the paths it may live at
var contentPaths = map[string][]string{
	"robots_txt":   {"robots.txt"},
	"sitemap_xml":  {"sitemap.xml"},
	"humans_txt":   {"humans.txt"},
	"security_txt": {".well-known/security.txt", "security.txt"},
	"data_json":    {"data.json"},
}

// ContentPathKeys lists the keys accepted by Content.Has
func ContentPathKeys() []string {
	return []string{"data_json", "humans_txt", "robots_txt", "security_txt", "sitemap_xml"}
}

// Content inspects what an endpoint serves: its home page and well-known files.
// Path existence is only meaningful on servers that answer unknown paths
// with a 404, so every existence probe requires Proper404s.
type Content struct {
	endpoint *site.Endpoint

	mu         sync.Mutex
	proper404s *bool
	paths      map[string]bool

	docOnce sync.Once
	doc     *goquery.Document
}

// NewContent creates a content prober for e
func NewContent(e *site.Endpoint) *Content {
	return &Content{endpoint: e, paths: make(map[string]bool)}
}

// Proper404s reports whether random paths all return 404. The probes are
// issued as one batch.
func (c *Content) Proper404s(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.proper404s != nil {
		return *c.proper404s
	}

	reqs := make([]fetch.Request, 0, constants.Proper404Probes)
	for i := 0; i < constants.Proper404Probes; i++ {
		req, err := c.endpoint.BuildRequest(ctx, uuid.NewString(), http.MethodHead, true)
		if err != nil {
			continue
		}
		reqs = append(reqs, req)
	}

	proper := len(reqs) > 0
	for _, resp := range c.endpoint.RunBatch(ctx, reqs) {
		if resp == nil || resp.StatusCode != http.StatusNotFound {
			proper = false
		}
	}
	c.proper404s = &proper
	return proper
}

// Has reports whether the file named by key exists at any of its paths
func (c *Content) Has(ctx context.Context, key string) (bool, error) {
	paths, ok := contentPaths[key]
	if !ok {
		return false, fmt.Errorf("%w: %s", sharedErrors.ErrUnknownPath, key)
	}
	return c.PathsExist(ctx, paths...), nil
}

// PathsExist reports whether any of paths answers with a 2xx after following
// redirects. Unknown paths are probed together as one batch.
func (c *Content) PathsExist(ctx context.Context, paths ...string) bool {
	if !c.Proper404s(ctx) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		pending []string
		reqs    []fetch.Request
	)
	for _, path := range paths {
		if _, seen := c.paths[path]; seen {
			continue
		}
		req, err := c.endpoint.BuildRequest(ctx, path, http.MethodHead, true)
		if err != nil {
			c.paths[path] = false
			continue
		}
		pending = append(pending, path)
		reqs = append(reqs, req)
	}
	if len(reqs) > 0 {
		for i, resp := range c.endpoint.RunBatch(ctx, reqs) {
			c.paths[pending[i]] = resp.Success()
		}
	}

	for _, path := range paths {
		if c.paths[path] {
			return true
		}
	}
	return false
}

// Document parses the endpoint's home page; nil when there is no body
func (c *Content) Document(ctx context.Context) *goquery.Document {
	c.docOnce.Do(func() {
		resp := c.endpoint.Content(ctx)
		if resp == nil || len(resp.Body) == 0 {
			return
		}
		body, err := charset.NewReader(bytes.NewReader(resp.Body), resp.HeaderValue("Content-Type"))
		if err != nil {
			body = bytes.NewReader(resp.Body)
		}
		doc, err := goquery.NewDocumentFromReader(body)
		if err != nil {
			return
		}
		c.doc = doc
	})
	return c.doc
}

// Doctype is the document type name, e.g. "html"
func (c *Content) Doctype(ctx context.Context) string {
	doc := c.Document(ctx)
	if doc == nil || len(doc.Nodes) == 0 {
		return ""
	}
	for n := doc.Nodes[0].FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.DoctypeNode {
			return n.Data
		}
	}
	return ""
}

// Generator is the content of the generator meta tag
func (c *Content) Generator(ctx context.Context) string {
	doc := c.Document(ctx)
	if doc == nil {
		return ""
	}
	generator := ""
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(s.AttrOr("name", ""), "generator") {
			generator = strings.TrimSpace(s.AttrOr("content", ""))
			return false
		}
		return true
	})
	return generator
}

type contentCheck struct{}

func (contentCheck) Name() string { return "content" }

// Run reports home page facts and which common files exist. Redirecting or
// down endpoints serve nothing of their own.
func (contentCheck) Run(ctx context.Context, t *Target) map[string]any {
	if !servesContent(ctx, t.Endpoint) {
		return map[string]any{}
	}

	c := t.ContentProbe()
	proper := c.Proper404s(ctx)
	facts := map[string]any{
		"doctype":     c.Doctype(ctx),
		"generator":   c.Generator(ctx),
		"proper_404s": proper,
	}

	var all []string
	for _, key := range ContentPathKeys() {
		all = append(all, contentPaths[key]...)
	}
	c.PathsExist(ctx, all...)

	for _, key := range ContentPathKeys() {
		if !proper {
			facts[key] = nil
			continue
		}
		exists, _ := c.Has(ctx, key)
		facts[key] = exists
	}
	return facts
}
