package inspect

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/khanhnv2901/site-inspector/internal/checker"
	"github.com/khanhnv2901/site-inspector/internal/domain/site"
	"github.com/khanhnv2901/site-inspector/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/site-inspector/internal/shared/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config holds service settings
type Config struct {
	Site              site.Config
	DomainConcurrency int  // Domains inspected at once
	All               bool // Report every endpoint, not just the canonical one
	Logger            *zap.Logger
}

// Service inspects domains: it resolves each one's endpoints and runs the
// selected checks against them
type Service struct {
	fetcher site.Fetcher
	runner  *checker.Runner
	cfg     Config
	logger  *zap.Logger
}

// Result is the outcome for one requested host. Err is only set for input
// that is not a usable host.
type Result struct {
	Input  string             `json:"input"`
	Report *site.DomainReport `json:"report,omitempty"`
	Error  string             `json:"error,omitempty"`
	Err    error              `json:"-"`
}

// Run is one inspection of a list of hosts
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Checks     []string  `json:"checks"`
	Results    []Result  `json:"results"`
}

// NewService creates a new inspection service; runner may be nil to skip checks
func NewService(fetcher site.Fetcher, runner *checker.Runner, cfg Config) (*Service, error) {
	if fetcher == nil {
		return nil, sharedErrors.ErrNilTransport
	}
	if cfg.DomainConcurrency == 0 {
		cfg.DomainConcurrency = constants.DefaultDomainConcurrency
	}
	if cfg.DomainConcurrency < 0 {
		return nil, sharedErrors.ErrInvalidConcurrency
	}
	if runner == nil {
		runner = checker.NewRunner(nil, cfg.Logger)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{fetcher: fetcher, runner: runner, cfg: cfg, logger: logger}, nil
}

// Inspect resolves a single host and reports on it
func (s *Service) Inspect(ctx context.Context, host string) (*site.DomainReport, error) {
	d, err := site.NewDomain(host, s.fetcher, s.cfg.Site)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report := d.Report(ctx, site.ReportOptions{All: s.cfg.All, Checks: s.runner.CheckFunc()})

	canonical := ""
	if report.CanonicalEndpoint != nil {
		canonical = report.CanonicalEndpoint.URI
	}
	s.logger.Info("domain inspected",
		zap.String("domain", d.Host()),
		zap.Bool("up", report.Up),
		zap.Bool("https", report.HTTPS),
		zap.String("canonical", canonical),
		zap.Duration("duration", time.Since(start)))
	return report, nil
}

// InspectAll inspects hosts with bounded parallelism. Results keep input order;
// a bad host only fails its own entry.
func (s *Service) InspectAll(ctx context.Context, hosts []string) *Run {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Checks:    s.runner.Checks(),
		Results:   make([]Result, len(hosts)),
	}
	s.logger.Debug("inspection started", zap.String("run_id", run.ID), zap.Int("domains", len(hosts)))

	var g errgroup.Group
	g.SetLimit(s.cfg.DomainConcurrency)
	for i, host := range hosts {
		i, host := i, host
		g.Go(func() error {
			result := Result{Input: host}
			report, err := s.Inspect(ctx, host)
			if err != nil {
				s.logger.Warn("skipping host", zap.String("input", host), zap.Error(err))
				result.Err = err
				result.Error = err.Error()
			}
			result.Report = report
			run.Results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	run.FinishedAt = time.Now().UTC()
	return run
}
