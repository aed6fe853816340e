package checker

import (
	"context"
	"time"
)

type httpsCheck struct{}

func (httpsCheck) Name() string { return "https" }

// Run reports the endpoint's TLS classification and certificate details
func (httpsCheck) Run(ctx context.Context, t *Target) map[string]any {
	if !t.IsHTTPS() {
		return map[string]any{}
	}

	state := t.HTTPS(ctx)
	facts := map[string]any{
		"valid":       state.Valid(),
		"validity":    string(state.Validity),
		"bad_chain":   state.BadChain,
		"bad_name":    state.BadName,
		"return_code": string(state.ReturnCode),
	}

	info := state.TLS
	if info == nil {
		return facts
	}
	facts["tls_version"] = info.Version
	facts["cipher_suite"] = info.CipherSuite
	if info.Subject != "" {
		facts["subject"] = info.Subject
	}
	if info.Issuer != "" {
		facts["issuer"] = info.Issuer
	}
	if !info.NotAfter.IsZero() {
		facts["cert_expiry"] = info.NotAfter.UTC().Format(time.RFC3339)
		facts["days_until_expiry"] = int(time.Until(info.NotAfter).Hours() / 24)
	}
	return facts
}
