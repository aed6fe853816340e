package checker

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/khanhnv2901/site-inspector/internal/domain/site"
	"github.com/khanhnv2901/site-inspector/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/site-inspector/internal/shared/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Check is the interface that all check implementations must satisfy
type Check interface {
	// Name is the key the check's facts are reported under (e.g. "https", "dns")
	Name() string

	// Run computes the facts for a single endpoint
	Run(ctx context.Context, t *Target) map[string]any
}

// Options configure check construction
type Options struct {
	Resolver         Resolver      // DNS resolver, net.DefaultResolver when nil
	DNSTimeout       time.Duration // Timeout for each DNS lookup
	PreloadStatus    bool          // Query the HSTS preload list status API
	PreloadStatusURL string        // Override for the status API endpoint
	Logger           *zap.Logger
}

// Definition is one entry of the static check registry
type Definition struct {
	Name    string
	Enabled bool // Run when no explicit selection is made
	New     func(opts Options) Check
}

var definitions = []Definition{
	{Name: "content", Enabled: true, New: func(Options) Check { return contentCheck{} }},
	{Name: "dns", Enabled: false, New: newDNSCheck},
	{Name: "hsts", Enabled: true, New: newHSTSCheck},
	{Name: "https", Enabled: true, New: func(Options) Check { return httpsCheck{} }},
	{Name: "well_known", Enabled: true, New: func(Options) Check { return wellKnownCheck{} }},
}

// Registry returns every known check in name order
func Registry() []Definition {
	defs := slices.Clone(definitions)
	slices.SortFunc(defs, func(a, b Definition) int { return strings.Compare(a.Name, b.Name) })
	return defs
}

// Select builds the named checks in registry order. With no names it builds
// every check enabled by default.
func Select(names []string, opts Options) ([]Check, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !known(name) {
			return nil, fmt.Errorf("%w: %s", sharedErrors.ErrUnknownCheck, name)
		}
		wanted[name] = true
	}

	var checks []Check
	for _, def := range Registry() {
		if len(wanted) == 0 && !def.Enabled {
			continue
		}
		if len(wanted) > 0 && !wanted[def.Name] {
			continue
		}
		checks = append(checks, def.New(opts))
	}
	return checks, nil
}

func known(name string) bool {
	for _, def := range definitions {
		if def.Name == name {
			return true
		}
	}
	return false
}

// Target is an endpoint plus state shared by every check run against it
type Target struct {
	*site.Endpoint

	contentOnce sync.Once
	content     *Content
}

// NewTarget wraps an endpoint for checking
func NewTarget(e *site.Endpoint) *Target {
	return &Target{Endpoint: e}
}

// ContentProbe returns the endpoint's content prober, shared across checks
func (t *Target) ContentProbe() *Content {
	t.contentOnce.Do(func() {
		t.content = NewContent(t.Endpoint)
	})
	return t.content
}

// Runner executes a set of checks against endpoints, a bounded number at a time
type Runner struct {
	checks []Check
	limit  int
	logger *zap.Logger
}

// NewRunner creates a runner; logger may be nil
func NewRunner(checks []Check, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{checks: checks, limit: constants.DefaultCheckConcurrency, logger: logger}
}

// Checks returns the names of the checks the runner executes
func (r *Runner) Checks() []string {
	names := make([]string, len(r.checks))
	for i, c := range r.checks {
		names[i] = c.Name()
	}
	return names
}

// Run executes every check for e and returns the facts keyed by check name
func (r *Runner) Run(ctx context.Context, e *site.Endpoint) map[string]any {
	target := NewTarget(e)
	results := make([]map[string]any, len(r.checks))

	var g errgroup.Group
	g.SetLimit(r.limit)
	for i, c := range r.checks {
		i, c := i, c
		g.Go(func() error {
			start := time.Now()
			results[i] = c.Run(ctx, target)
			r.logger.Debug("check finished",
				zap.String("check", c.Name()),
				zap.String("endpoint", e.URI()),
				zap.Duration("duration", time.Since(start)))
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]any, len(r.checks))
	for i, c := range r.checks {
		if results[i] == nil {
			results[i] = map[string]any{}
		}
		out[c.Name()] = results[i]
	}
	return out
}

// CheckFunc adapts the runner to the domain report hook
func (r *Runner) CheckFunc() site.CheckFunc {
	if len(r.checks) == 0 {
		return nil
	}
	return r.Run
}

// servesContent reports whether an endpoint has content of its own to inspect
func servesContent(ctx context.Context, e *site.Endpoint) bool {
	return e.Up(ctx) && !e.IsRedirect(ctx)
}
