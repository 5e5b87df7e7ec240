package adapters

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Page is the readable content of one HTML document
type Page struct {
	Title string
	Text  string
}

// Adapter defines the interface for article text extractors
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// Extract pulls the title and body text out of an HTML document
	Extract(htmlContent string, pageURL string) (*Page, error)
}

// Registry manages extraction strategies by name
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates a registry with the built-in strategies.
// minParagraphLength is the exclusive lower bound for paragraph text.
func NewRegistry(minParagraphLength int) *Registry {
	registry := &Registry{
		adapters: make(map[string]Adapter),
	}

	paragraphs := NewParagraphAdapter(minParagraphLength)
	registry.Register(paragraphs)
	registry.Register(NewReadabilityAdapter(paragraphs))
	registry.Register(NewVisibleAdapter())

	return registry
}

// Register registers a new adapter, replacing any with the same name
func (r *Registry) Register(adapter Adapter) {
	r.adapters[adapter.Name()] = adapter
}

// Lookup returns the adapter registered under name
func (r *Registry) Lookup(name string) (Adapter, error) {
	if name == "" {
		name = StrategyParagraphs
	}
	adapter, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("unknown extraction strategy %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return adapter, nil
}

// Names lists the registered strategy names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var strictPolicy = bluemonday.StrictPolicy()

// CleanText collapses whitespace in already-decoded text.
// Angle brackets in s are literal characters, not markup.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripMarkup removes every tag from an HTML fragment and returns its text.
// The strict policy re-escapes entities, so they are decoded afterwards.
func StripMarkup(fragment string) string {
	if fragment == "" {
		return ""
	}
	return CleanText(html.UnescapeString(strictPolicy.Sanitize(fragment)))
}
