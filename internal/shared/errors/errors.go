package errors

import "errors"

// Configuration and construction errors. Network and protocol irregularities
// are never reported through these; they are recorded as endpoint state.
var (
	// Domain errors
	ErrEmptyHost   = errors.New("host cannot be empty")
	ErrInvalidHost = errors.New("invalid host")
	ErrInvalidURI  = errors.New("invalid endpoint URI")

	// Fetch errors
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
	ErrInvalidTimeout     = errors.New("timeout must be positive")
	ErrNilTransport       = errors.New("transport cannot be nil")

	// Cache errors
	ErrInvalidCacheBackend = errors.New("unsupported cache backend")
	ErrCacheDirRequired    = errors.New("cache directory is required")
	ErrEmptyCacheKey       = errors.New("cache key cannot be empty")

	// Check errors
	ErrUnknownCheck = errors.New("unknown check")
	ErrUnknownPath  = errors.New("unknown path key")
)
