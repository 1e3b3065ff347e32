// Package brands excludes franchise and chain businesses from lead generation.
package brands

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Filter matches business names against known brand fragments per category.
// A Filter is immutable after construction and safe for concurrent use.
type Filter struct {
	brands map[string][]string
}

// Default returns a Filter over the built-in brand table.
func Default() *Filter {
	return New(nil)
}

// New returns a Filter over the built-in table with overrides applied. An
// override replaces the whole fragment list for its category.
func New(overrides map[string][]string) *Filter {
	merged := make(map[string][]string, len(defaultBrands)+len(overrides))
	for cat, frags := range defaultBrands {
		merged[cat] = normalizeAll(frags)
	}
	for cat, frags := range overrides {
		merged[cat] = normalizeAll(frags)
	}
	return &Filter{brands: merged}
}

// LoadFile builds a Filter from a YAML file mapping category to fragments.
// An empty path returns the default Filter.
func LoadFile(path string) (*Filter, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "brands: read %s", path)
	}
	var overrides map[string][]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrapf(err, "brands: parse %s", path)
	}
	return New(overrides), nil
}

// Match returns the first brand fragment of category contained in name.
func (f *Filter) Match(name, category string) (string, bool) {
	frags := f.brands[category]
	if len(frags) == 0 {
		return "", false
	}
	normalized := normalize(name)
	if normalized == "" {
		return "", false
	}
	for _, frag := range frags {
		if strings.Contains(normalized, frag) {
			return frag, true
		}
	}
	return "", false
}

// Categories returns the categories that have brand lists, sorted.
func (f *Filter) Categories() []string {
	out := make([]string, 0, len(f.brands))
	for cat := range f.brands {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	// Casers are stateful, so one per call.
	return strings.TrimSpace(cases.Lower(language.Spanish).String(s))
}

func normalizeAll(frags []string) []string {
	out := make([]string, 0, len(frags))
	for _, f := range frags {
		if n := normalize(f); n != "" {
			out = append(out, n)
		}
	}
	return out
}
