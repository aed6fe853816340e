package site

import "testing"

func TestParseHSTS(t *testing.T) {
	tests := []struct {
		name              string
		header            string
		valid             bool
		enabled           bool
		includeSubdomains bool
		preload           bool
		preloadReady      bool
	}{
		{"preload ready", "max-age=31536000; includeSubDomains; preload", true, true, true, true, true},
		{"max-age zero", "max-age=0", true, false, false, false, false},
		{"below preload threshold", "max-age=3600;includeSubDomains;preload", true, true, true, true, false},
		{"threshold exactly", "max-age=10886400; includeSubDomains; preload", true, true, true, true, true},
		{"comma separated", "max-age=15552000, includeSubDomains", false, false, false, false, false},
		{"quoted max-age", `max-age="31536000"`, true, true, false, false, false},
		{"single quotes", "max-age='31536000'", false, false, false, false, false},
		{"non-integer max-age", "max-age=forever; preload", false, false, false, false, false},
		{"missing max-age", "includeSubDomains; preload", true, false, true, true, false},
		{"include subdomains only", "includeSubDomains", true, false, true, false, false},
		{"uppercase names", "MAX-AGE=31536000; INCLUDESUBDOMAINS", true, true, true, false, false},
		{"empty directives", ";;max-age=60;;", true, true, false, false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h := ParseHSTS(tt.header)
			if !h.Present {
				t.Error("Expected Present to be true")
			}
			if h.Header != tt.header {
				t.Errorf("Expected raw header %q, got %q", tt.header, h.Header)
			}
			if h.Valid != tt.valid {
				t.Errorf("Expected valid=%v, got %v", tt.valid, h.Valid)
			}
			if h.Enabled != tt.enabled {
				t.Errorf("Expected enabled=%v, got %v", tt.enabled, h.Enabled)
			}
			if h.IncludeSubdomains != tt.includeSubdomains {
				t.Errorf("Expected includeSubdomains=%v, got %v", tt.includeSubdomains, h.IncludeSubdomains)
			}
			if h.Preload != tt.preload {
				t.Errorf("Expected preload=%v, got %v", tt.preload, h.Preload)
			}
			if h.PreloadReady != tt.preloadReady {
				t.Errorf("Expected preloadReady=%v, got %v", tt.preloadReady, h.PreloadReady)
			}
		})
	}
}

func TestParseHSTS_IncludeSubdomainsWithoutMaxAge(t *testing.T) {
	h := ParseHSTS("includeSubDomains")
	if h.MaxAge != nil {
		t.Errorf("Expected no max-age, got %d", *h.MaxAge)
	}
	if !h.Valid || h.Enabled || h.PreloadReady {
		t.Errorf("Expected a valid but disabled record, got %+v", h)
	}
	if len(h.Directives) != 1 || h.Directives[0].Name != "includesubdomains" {
		t.Errorf("Expected a single includesubdomains directive, got %+v", h.Directives)
	}
}

func TestParseHSTS_Absent(t *testing.T) {
	h := ParseHSTS("")
	if h.Present || h.Valid || h.Enabled {
		t.Errorf("Expected empty record for missing header, got %+v", h)
	}
}

func TestParseHSTS_FirstMaxAgeWins(t *testing.T) {
	h := ParseHSTS("max-age=100; max-age=200")
	if h.MaxAge == nil || *h.MaxAge != 100 {
		t.Fatalf("Expected max-age 100, got %v", h.MaxAge)
	}
	if len(h.Directives) != 2 {
		t.Errorf("Expected 2 directives, got %d", len(h.Directives))
	}
	if v, ok := h.Directive("MAX-AGE"); !ok || v != "100" {
		t.Errorf("Expected directive lookup to return 100, got %q (%v)", v, ok)
	}
}
