// Package cache provides the response stores consulted before every probe.
//
// Values are opaque byte slices (the fetch layer serializes responses), so the
// backends stay independent of the HTTP model. Every backend is safe for
// concurrent Get/Set. Keys are write-once-then-read-many within a run, so no
// backend needs read-modify-write protection.
package cache

import (
	"fmt"
	"strings"

	sharedErrors "github.com/khanhnv2901/site-inspector/internal/shared/errors"
	"go.uber.org/zap"
)

// Cache is a fingerprint-keyed response store.
type Cache interface {
	// Get returns the stored value, or false on a miss. Backend failures are misses.
	Get(key string) ([]byte, bool)
	// Set stores value under key.
	Set(key string, value []byte) error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendBadger = "badger"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Dir     string
	// Replace makes the disk backend discard entries left by earlier runs.
	Replace bool
	Logger  *zap.Logger
}

// New builds the backend named in cfg. The returned closer releases backend
// resources and is never nil.
func New(cfg Config) (Cache, func() error, error) {
	noop := func() error { return nil }
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemory(), noop, nil
	case BackendDisk:
		d, err := NewDisk(cfg.Dir, cfg.Replace, logger)
		if err != nil {
			return nil, noop, err
		}
		return d, noop, nil
	case BackendBadger:
		b, err := OpenBadger(cfg.Dir, logger)
		if err != nil {
			return nil, noop, err
		}
		return b, b.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", sharedErrors.ErrInvalidCacheBackend, cfg.Backend)
	}
}
