package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// DefaultRequestTimeout bounds every single probe.
	DefaultRequestTimeout = 10 * time.Second
	// DefaultConcurrency is the number of probes a scheduler keeps in flight.
	DefaultConcurrency = 4
	// DefaultCheckConcurrency caps how many checks run at once for one endpoint.
	DefaultCheckConcurrency = 4
	// DefaultDomainConcurrency caps how many domains are inspected at once.
	DefaultDomainConcurrency = 2
	// DefaultDNSTimeout bounds each DNS lookup of the dns check.
	DefaultDNSTimeout = 5 * time.Second
	// Proper404Probes is how many random paths must return 404.
	Proper404Probes = 3
	// BodyLimitBytes caps how much of a response body is kept for content checks.
	BodyLimitBytes = 2 << 20
)

const (
	// HSTSPreloadMinMaxAge is the minimum max-age (126 days) accepted for preloading.
	HSTSPreloadMinMaxAge = 10886400
	// HSTSPreloadStatusURL is the hstspreload.org status API.
	HSTSPreloadStatusURL = "https://hstspreload.org/api/v2/status"
)

// UserAgentFormat is filled with the build version.
const UserAgentFormat = "Mozilla/5.0 (compatible; SiteInspector/%s; +https://github.com/khanhnv2901/site-inspector)"
