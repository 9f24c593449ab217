// Package normalize enforces the invariants every story must satisfy
// before it is analysed.
package normalize

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/strata/internal/model"
)

// DropError reports a story rejected by the normalizer
type DropError struct {
	Story  model.RawStory
	Reason string
}

func (e *DropError) Error() string {
	return fmt.Sprintf("story dropped: %s", e.Reason)
}

// Normalizer trims fields, rejects incomplete stories and caps summaries
type Normalizer struct {
	maxSummaryBytes int
	logger          *slog.Logger
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithLogger sets the logger used for dropped stories
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

// New creates a Normalizer. maxSummaryBytes <= 0 selects the default cap.
func New(maxSummaryBytes int, opts ...Option) *Normalizer {
	if maxSummaryBytes <= 0 {
		maxSummaryBytes = model.DefaultSummaryMaxBytes
	}
	n := &Normalizer{
		maxSummaryBytes: maxSummaryBytes,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the cleaned story or a *DropError
func (n *Normalizer) Normalize(story model.RawStory) (model.RawStory, error) {
	out := model.RawStory{
		Title:   strings.TrimSpace(story.Title),
		Summary: strings.TrimSpace(truncateUTF8(strings.TrimSpace(story.Summary), n.maxSummaryBytes)),
		Source:  strings.TrimSpace(story.Source),
	}
	if story.PublishedAt != nil {
		out.PublishedAt = model.StringPtr(strings.TrimSpace(*story.PublishedAt))
	}

	if out.Title == "" {
		return story, &DropError{Story: story, Reason: "empty title"}
	}
	if out.Source == "" {
		return story, &DropError{Story: story, Reason: "empty source"}
	}
	if u, err := url.Parse(out.Source); err != nil || !u.IsAbs() || u.Host == "" {
		return story, &DropError{Story: story, Reason: fmt.Sprintf("source %q is not an absolute URL", out.Source)}
	}

	return out, nil
}

// NormalizeAll normalizes stories in order, logging and skipping drops.
// It returns the kept stories and the number dropped.
func (n *Normalizer) NormalizeAll(stories []model.RawStory) ([]model.RawStory, int) {
	kept := make([]model.RawStory, 0, len(stories))
	dropped := 0
	for _, s := range stories {
		clean, err := n.Normalize(s)
		if err != nil {
			dropped++
			n.logger.Warn("story dropped",
				"reason", err.(*DropError).Reason,
				"title", s.Title,
				"source", s.Source)
			continue
		}
		kept = append(kept, clean)
	}
	return kept, dropped
}

// truncateUTF8 cuts s to at most maxBytes without splitting a rune
func truncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
