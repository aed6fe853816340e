package checker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/khanhnv2901/site-inspector/internal/infrastructure/fetch"
	"github.com/khanhnv2901/site-inspector/internal/shared/constants"
	"go.uber.org/zap"
)

type hstsCheck struct {
	preloadStatus bool
	statusURL     string
	logger        *zap.Logger
}

func newHSTSCheck(opts Options) Check {
	c := hstsCheck{
		preloadStatus: opts.PreloadStatus,
		statusURL:     opts.PreloadStatusURL,
		logger:        opts.Logger,
	}
	if c.statusURL == "" {
		c.statusURL = constants.HSTSPreloadStatusURL
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

func (hstsCheck) Name() string { return "hsts" }

// Run reports the parsed Strict-Transport-Security header. Browsers ignore the
// header over plain http, so only https endpoints have HSTS facts.
func (c hstsCheck) Run(ctx context.Context, t *Target) map[string]any {
	if !t.IsHTTPS() {
		return map[string]any{}
	}

	h := t.HSTS(ctx)
	facts := map[string]any{
		"header":             h.Header,
		"valid":              h.Valid,
		"max_age":            h.MaxAge,
		"include_subdomains": h.IncludeSubdomains,
		"preload":            h.Preload,
		"enabled":            h.Enabled,
		"preload_ready":      h.PreloadReady,
	}
	if c.preloadStatus {
		facts["preload_list_status"] = c.preloadListStatus(ctx, t)
	}
	return facts
}

// preloadListStatus asks the preload list API about the endpoint's host. An
// unreachable API yields nil.
func (c hstsCheck) preloadListStatus(ctx context.Context, t *Target) any {
	u, err := url.Parse(c.statusURL)
	if err != nil {
		c.logger.Warn("invalid preload status url", zap.String("url", c.statusURL), zap.Error(err))
		return nil
	}
	query := u.Query()
	query.Set("domain", t.Hostname())
	u.RawQuery = query.Encode()

	req := fetch.NewRequest(u.String())
	req.Options.Method = http.MethodGet
	resp := t.Fetcher().Do(ctx, req)
	if !resp.Success() {
		return nil
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		c.logger.Debug("unreadable preload status", zap.String("host", t.Hostname()), zap.Error(err))
		return nil
	}
	return status.Status
}
