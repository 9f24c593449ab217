package source

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/strata/internal/model"
)

// Adapter converts one remote origin into a bounded list of raw stories
type Adapter interface {
	// Name returns the configured source name
	Name() string

	// Kind returns the adapter variant
	Kind() model.SourceKind

	// URL returns the remote resource the adapter reads
	URL() string

	// Fetch returns at most limit stories in source order. Any network or
	// parse failure aborts the call with a *FetchError and no stories.
	Fetch(ctx context.Context, limit int) ([]model.RawStory, error)
}

// FetchError is a whole-source failure
type FetchError struct {
	Source string
	Cause  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// New builds the adapter variant selected by cfg.Kind
func New(cfg model.SourceConfig, fetcher *Fetcher) (Adapter, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("source has no name")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("source %s: url is required", cfg.Name)
	}

	switch cfg.Kind {
	case model.SourceKindFeed:
		return NewFeedAdapter(cfg, fetcher), nil
	case model.SourceKindListing:
		if cfg.Listing.Block == "" || cfg.Listing.Summary == "" || cfg.Listing.Link == "" {
			return nil, fmt.Errorf("source %s: listing needs block, summary and link selectors", cfg.Name)
		}
		if cfg.Listing.Title == "" && !cfg.Listing.TitleFromSummary {
			return nil, fmt.Errorf("source %s: listing needs a title selector or title_from_summary", cfg.Name)
		}
		return NewListingAdapter(cfg, fetcher), nil
	default:
		return nil, fmt.Errorf("source %s: unknown kind %q", cfg.Name, cfg.Kind)
	}
}

// Registry holds the configured adapters by name, in configuration order
type Registry struct {
	adapters []Adapter
	byName   map[string]Adapter
}

// NewRegistry builds adapters for every enabled source in cfg
func NewRegistry(cfg *model.Config, fetcher *Fetcher) (*Registry, error) {
	r := &Registry{byName: make(map[string]Adapter)}
	for _, sc := range cfg.EnabledSources() {
		a, err := New(sc, fetcher)
		if err != nil {
			return nil, err
		}
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an adapter; names must be unique
func (r *Registry) Register(a Adapter) error {
	if r.byName == nil {
		r.byName = make(map[string]Adapter)
	}
	if _, exists := r.byName[a.Name()]; exists {
		return fmt.Errorf("duplicate source %q", a.Name())
	}
	r.adapters = append(r.adapters, a)
	r.byName[a.Name()] = a
	return nil
}

// Get returns the adapter with the given name
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// All returns every adapter in registration order
func (r *Registry) All() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// Names returns the registered source names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// collapseSpace trims s and replaces whitespace runs with one space
func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return model.DefaultSourceLimit
	}
	return limit
}
