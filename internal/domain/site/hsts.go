package site

import (
	"strconv"
	"strings"

	"github.com/khanhnv2901/site-inspector/internal/shared/constants"
)

// HSTSDirective is one parsed Strict-Transport-Security directive.
type HSTSDirective struct {
	Name     string `json:"name"`
	Value    string `json:"value,omitempty"`
	HasValue bool   `json:"-"`
}

// HSTS is the interpretation of a Strict-Transport-Security header (RFC 6797).
// An invalid header yields the zero "no HSTS" record with only Header and
// Present filled in.
type HSTS struct {
	Header            string          `json:"header,omitempty"`
	Present           bool            `json:"present"`
	Directives        []HSTSDirective `json:"directives,omitempty"`
	MaxAge            *int64          `json:"max_age"`
	IncludeSubdomains bool            `json:"include_subdomains"`
	Preload           bool            `json:"preload"`
	Valid             bool            `json:"valid"`
	Enabled           bool            `json:"enabled"`
	PreloadReady      bool            `json:"preload_ready"`
}

// ParseHSTS parses a raw header value. An empty value means the header is absent.
func ParseHSTS(header string) HSTS {
	result := HSTS{Header: header, Present: strings.TrimSpace(header) != ""}
	if !result.Present {
		return result
	}

	var directives []HSTSDirective
	for _, raw := range strings.Split(header, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, value, hasValue := strings.Cut(raw, "=")
		name = strings.ToLower(name)
		if hasValue && len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
			value = value[1 : len(value)-1]
		}
		if hasInvalidHSTSChars(name) || hasInvalidHSTSChars(value) {
			return HSTS{Header: header, Present: true}
		}
		directives = append(directives, HSTSDirective{Name: name, Value: value, HasValue: hasValue})
	}

	for _, d := range directives {
		switch d.Name {
		case "max-age":
			if result.MaxAge != nil {
				continue
			}
			age, err := strconv.ParseInt(d.Value, 10, 64)
			if err != nil {
				return HSTS{Header: header, Present: true}
			}
			result.MaxAge = &age
		case "includesubdomains":
			result.IncludeSubdomains = true
		case "preload":
			result.Preload = true
		}
	}

	result.Directives = directives
	result.Valid = true
	result.Enabled = result.MaxAge != nil && *result.MaxAge > 0
	result.PreloadReady = result.Enabled &&
		result.IncludeSubdomains &&
		result.Preload &&
		*result.MaxAge >= constants.HSTSPreloadMinMaxAge
	return result
}

// Directive returns the value of the named directive.
func (h HSTS) Directive(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, d := range h.Directives {
		if d.Name == name {
			return d.Value, true
		}
	}
	return "", false
}

func hasInvalidHSTSChars(s string) bool {
	return strings.ContainsAny(s, " \t\r\n\v\f'\"")
}
