package checker

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	sharedErrors "github.com/khanhnv2901/site-inspector/internal/shared/errors"
	"gopkg.in/yaml.v3"
)

//go:embed well_known.yml
var wellKnownYAML []byte

const wellKnownBase = ".well-known/"

// WellKnownEntry is one registered well-known URI suffix
type WellKnownEntry struct {
	Name       string `yaml:"name"`
	Deprecated bool   `yaml:"deprecated"`
}

// WellKnownTable maps report keys (e.g. "security_txt") to paths
type WellKnownTable map[string]string

// ParseWellKnown reads a YAML list of entries, skipping deprecated ones
func ParseWellKnown(data []byte) (WellKnownTable, error) {
	var entries []WellKnownEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse well-known list: %w", err)
	}

	table := make(WellKnownTable, len(entries))
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" || entry.Deprecated {
			continue
		}
		table[wellKnownKey(name)] = wellKnownBase + name
	}
	return table, nil
}

func wellKnownKey(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

var (
	wellKnownOnce  sync.Once
	wellKnownTable WellKnownTable
)

// WellKnownURIs returns the embedded table
func WellKnownURIs() WellKnownTable {
	wellKnownOnce.Do(func() {
		table, err := ParseWellKnown(wellKnownYAML)
		if err != nil {
			panic(err)
		}
		wellKnownTable = table
	})
	return wellKnownTable
}

// Keys returns the table's keys in sorted order
func (t WellKnownTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WellKnown answers existence questions for well-known URIs of one endpoint
type WellKnown struct {
	content *Content
	table   WellKnownTable
}

// NewWellKnown uses content for its probes
func NewWellKnown(content *Content, table WellKnownTable) *WellKnown {
	return &WellKnown{content: content, table: table}
}

// Exists reports whether the well-known URI registered under key exists
func (w *WellKnown) Exists(ctx context.Context, key string) (bool, error) {
	path, ok := w.table[key]
	if !ok {
		return false, fmt.Errorf("%w: %s", sharedErrors.ErrUnknownPath, key)
	}
	return w.content.PathsExist(ctx, path), nil
}

type wellKnownCheck struct{}

func (wellKnownCheck) Name() string { return "well_known" }

func (wellKnownCheck) Run(ctx context.Context, t *Target) map[string]any {
	if !servesContent(ctx, t.Endpoint) {
		return map[string]any{}
	}

	table := WellKnownURIs()
	content := t.ContentProbe()
	facts := make(map[string]any, len(table))
	if !content.Proper404s(ctx) {
		for _, key := range table.Keys() {
			facts[key] = nil
		}
		return facts
	}

	paths := make([]string, 0, len(table))
	for _, key := range table.Keys() {
		paths = append(paths, table[key])
	}
	content.PathsExist(ctx, paths...)

	wk := NewWellKnown(content, table)
	for _, key := range table.Keys() {
		exists, _ := wk.Exists(ctx, key)
		facts[key] = exists
	}
	return facts
}
