package checker

import (
	"context"
	"errors"
	"testing"

	sharedErrors "github.com/khanhnv2901/site-inspector/internal/shared/errors"
)

func TestParseWellKnown(t *testing.T) {
	data := []byte(`
- name: security.txt
- name: change-password
- name: dnt
  deprecated: true
- name: ""
`)
	table, err := ParseWellKnown(data)
	if err != nil {
		t.Fatalf("ParseWellKnown: %v", err)
	}

	if len(table) != 2 {
		t.Fatalf("Expected 2 entries, got %d: %v", len(table), table)
	}
	if table["security_txt"] != ".well-known/security.txt" {
		t.Errorf("Unexpected path %q", table["security_txt"])
	}
	if table["change_password"] != ".well-known/change-password" {
		t.Errorf("Unexpected path %q", table["change_password"])
	}
	if _, ok := table["dnt"]; ok {
		t.Error("Expected deprecated entry to be skipped")
	}
}

func TestParseWellKnown_Invalid(t *testing.T) {
	if _, err := ParseWellKnown([]byte("name: [")); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestWellKnownURIs_Embedded(t *testing.T) {
	table := WellKnownURIs()
	if _, ok := table["security_txt"]; !ok {
		t.Error("Expected security_txt in embedded table")
	}
	if _, ok := table["dnt"]; ok {
		t.Error("Expected deprecated dnt to be skipped")
	}

	keys := table.Keys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("Expected sorted keys, got %v", keys)
		}
	}
}

func TestWellKnown_Exists(t *testing.T) {
	f := newFakeFetcher(status(404)).
		on("https://example.com/", page(homePage)).
		on("https://example.com/.well-known/change-password", status(200))
	content := NewContent(newTarget(t, "https://example.com", f).Endpoint)
	wk := NewWellKnown(content, WellKnownURIs())
	ctx := context.Background()

	if exists, err := wk.Exists(ctx, "change_password"); err != nil || !exists {
		t.Errorf("Expected change_password to exist, got %v (%v)", exists, err)
	}
	if exists, _ := wk.Exists(ctx, "webfinger"); exists {
		t.Error("Expected webfinger not to exist")
	}
	if _, err := wk.Exists(ctx, "nope"); !errors.Is(err, sharedErrors.ErrUnknownPath) {
		t.Errorf("Expected ErrUnknownPath, got %v", err)
	}
}

func TestWellKnownCheck_Run(t *testing.T) {
	f := newFakeFetcher(status(404)).
		on("https://example.com/", page(homePage)).
		on("https://example.com/.well-known/security.txt", status(200))
	target := newTarget(t, "https://example.com", f)

	facts := wellKnownCheck{}.Run(context.Background(), target)
	if len(facts) != len(WellKnownURIs()) {
		t.Errorf("Expected a fact per well-known URI, got %d", len(facts))
	}
	if facts["security_txt"] != true || facts["openid_configuration"] != false {
		t.Errorf("Unexpected facts %v", facts)
	}
	// random 404 probes plus one batch for every well-known path
	if f.batches != 2 {
		t.Errorf("Expected 2 batches, got %d", f.batches)
	}
}
