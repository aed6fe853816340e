package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/khanhnv2901/site-inspector/internal/infrastructure/cache"
	"github.com/khanhnv2901/site-inspector/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/site-inspector/internal/shared/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Config holds scheduler settings.
type Config struct {
	Concurrency int           // Maximum number of requests in flight
	RateLimit   int           // Requests per second (0 = unlimited)
	Timeout     time.Duration // Default per-request timeout
	Logger      *zap.Logger
	Metrics     *Metrics
}

// DefaultConfig returns the stock scheduler settings.
func DefaultConfig() Config {
	return Config{
		Concurrency: constants.DefaultConcurrency,
		Timeout:     constants.DefaultRequestTimeout,
	}
}

// Scheduler executes requests on a bounded worker pool. Every request consults
// the cache first, and identical requests in flight at the same time share one
// network round trip.
type Scheduler struct {
	transport Transport
	cache     cache.Cache
	timeout   time.Duration
	limiter   *rate.Limiter
	sem       chan struct{}
	flight    singleflight.Group
	logger    *zap.Logger
	metrics   *Metrics
}

// NewScheduler validates cfg and builds a scheduler. A nil cache gets a fresh
// in-memory cache.
func NewScheduler(transport Transport, c cache.Cache, cfg Config) (*Scheduler, error) {
	if transport == nil {
		return nil, sharedErrors.ErrNilTransport
	}
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("%w: %d", sharedErrors.ErrInvalidConcurrency, cfg.Concurrency)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: %s", sharedErrors.ErrInvalidTimeout, cfg.Timeout)
	}
	if c == nil {
		c = cache.NewMemory()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	s := &Scheduler{
		transport: transport,
		cache:     c,
		timeout:   cfg.Timeout,
		sem:       make(chan struct{}, cfg.Concurrency),
		logger:    logger,
		metrics:   metrics,
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}
	return s, nil
}

// Timeout is the default per-request timeout.
func (s *Scheduler) Timeout() time.Duration {
	return s.timeout
}

// Do runs a single request as a batch of one.
func (s *Scheduler) Do(ctx context.Context, req Request) *Response {
	return s.RunBatch(ctx, []Request{req})[0]
}

// RunBatch queues every request and blocks until all of them have settled.
// Responses are returned in request order; completion order is unspecified.
// A batch runs on at most Concurrency workers, however many requests it holds.
func (s *Scheduler) RunBatch(ctx context.Context, reqs []Request) []*Response {
	responses := make([]*Response, len(reqs))
	workers := cap(s.sem)
	if workers > len(reqs) {
		workers = len(reqs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				responses[i] = s.fetch(ctx, reqs[i])
			}
		}()
	}

	for i := range reqs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return responses
}

func (s *Scheduler) fetch(ctx context.Context, req Request) *Response {
	if req.Options.Timeout <= 0 {
		req.Options.Timeout = s.timeout
	}
	key := req.Fingerprint()

	if resp, ok := s.fromCache(key); ok {
		s.metrics.cacheHits.Inc()
		return resp
	}
	s.metrics.cacheMisses.Inc()

	v, _, shared := s.flight.Do(key, func() (interface{}, error) {
		// Another flight may have completed between our miss and this call.
		if resp, ok := s.fromCache(key); ok {
			return resp, nil
		}
		resp := s.roundTrip(ctx, req)
		s.store(key, resp)
		return resp, nil
	})
	if shared {
		s.logger.Debug("shared in-flight request", zap.String("url", req.URL))
	}

	// Each caller gets its own copy so header maps are never shared.
	return cloneResponse(v.(*Response))
}

func (s *Scheduler) roundTrip(ctx context.Context, req Request) *Response {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return &Response{URL: req.URL, ReturnCode: ReturnError, Error: ctx.Err().Error()}
	}
	defer func() { <-s.sem }()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return &Response{URL: req.URL, ReturnCode: ReturnError, Error: err.Error()}
		}
	}

	s.metrics.inFlight.Inc()
	defer s.metrics.inFlight.Dec()

	start := time.Now()
	resp := s.transport.RoundTrip(ctx, req)
	if resp == nil {
		resp = &Response{URL: req.URL, ReturnCode: ReturnError, Error: "transport returned no response"}
	}
	elapsed := time.Since(start)

	s.metrics.duration.Observe(elapsed.Seconds())
	s.metrics.requests.WithLabelValues(string(resp.ReturnCode)).Inc()
	s.logger.Debug("request complete",
		zap.String("method", req.Options.Method),
		zap.String("url", req.URL),
		zap.Bool("follow", req.Options.FollowLocation),
		zap.Int("status", resp.StatusCode),
		zap.String("return_code", string(resp.ReturnCode)),
		zap.Duration("elapsed", elapsed),
	)
	return resp
}

func (s *Scheduler) fromCache(key string) (*Response, bool) {
	data, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.Warn("undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &resp, true
}

// store caches responses that reflect the server rather than the network path.
func (s *Scheduler) store(key string, resp *Response) {
	switch resp.ReturnCode {
	case ReturnOK, ReturnSSLCACert, ReturnPeerVerification:
	default:
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("unencodable response", zap.String("url", resp.URL), zap.Error(err))
		return
	}
	if err := s.cache.Set(key, data); err != nil {
		s.logger.Warn("cache write failed", zap.String("url", resp.URL), zap.Error(err))
	}
}

func cloneResponse(r *Response) *Response {
	c := *r
	c.Header = r.Header.Clone()
	if r.TLS != nil {
		info := *r.TLS
		c.TLS = &info
	}
	return &c
}
