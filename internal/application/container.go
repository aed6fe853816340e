package application

import (
	"fmt"

	inspectapp "github.com/khanhnv2901/site-inspector/internal/application/inspect"
	"github.com/khanhnv2901/site-inspector/internal/checker"
	"github.com/khanhnv2901/site-inspector/internal/domain/site"
	"github.com/khanhnv2901/site-inspector/internal/infrastructure/cache"
	"github.com/khanhnv2901/site-inspector/internal/infrastructure/fetch"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Config is everything the entry point decides about a run
type Config struct {
	Cache     cache.Config
	Fetch     fetch.Config
	Transport fetch.HTTPTransportConfig
	Site      site.Config
	Checks    []string
	Check     checker.Options
	Inspect   inspectapp.Config
	// Registerer receives the fetch metrics; nil leaves them unregistered
	Registerer prometheus.Registerer
	Logger     *zap.Logger
}

// Container holds all application services and the infrastructure they share
// This is a simple dependency injection container
type Container struct {
	// Infrastructure
	Cache     cache.Cache
	Transport fetch.Transport
	Scheduler *fetch.Scheduler
	Metrics   *fetch.Metrics

	// Services
	Inspector *inspectapp.Service

	closeCache func() error
}

// NewContainer creates a new application service container using the live
// HTTP transport
func NewContainer(cfg Config) (*Container, error) {
	return NewContainerWithTransport(cfg, fetch.NewHTTPTransport(cfg.Transport))
}

// NewContainerWithTransport builds the container around transport
func NewContainerWithTransport(cfg Config, transport fetch.Transport) (*Container, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Initialize infrastructure
	cacheCfg := cfg.Cache
	cacheCfg.Logger = logger
	store, closeCache, err := cache.New(cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	metrics := fetch.NewMetrics(cfg.Registerer)
	fetchCfg := cfg.Fetch
	fetchCfg.Logger = logger
	fetchCfg.Metrics = metrics
	scheduler, err := fetch.NewScheduler(transport, store, fetchCfg)
	if err != nil {
		_ = closeCache()
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	// Initialize services
	checkOpts := cfg.Check
	checkOpts.Logger = logger
	checks, err := checker.Select(cfg.Checks, checkOpts)
	if err != nil {
		_ = closeCache()
		return nil, err
	}

	inspectCfg := cfg.Inspect
	inspectCfg.Site = cfg.Site
	inspectCfg.Logger = logger
	inspector, err := inspectapp.NewService(scheduler, checker.NewRunner(checks, logger), inspectCfg)
	if err != nil {
		_ = closeCache()
		return nil, fmt.Errorf("failed to create inspector: %w", err)
	}

	return &Container{
		Cache:      store,
		Transport:  transport,
		Scheduler:  scheduler,
		Metrics:    metrics,
		Inspector:  inspector,
		closeCache: closeCache,
	}, nil
}

// Close releases the cache backend
func (c *Container) Close() error {
	if c.closeCache == nil {
		return nil
	}
	return c.closeCache()
}
