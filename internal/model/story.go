package model

// RawStory is one item produced by a source adapter, before analysis
type RawStory struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Source  string `json:"source"` // Absolute URL of the origin item, also the dedup key

	// PublishedAt is nil when the adapter cannot determine a date at all
	// (listing adapters). Feed adapters always set it, possibly to "".
	PublishedAt *string `json:"publishedAt,omitempty"`
}

// Published returns the publish timestamp or "" when absent
func (s RawStory) Published() string {
	if s.PublishedAt == nil {
		return ""
	}
	return *s.PublishedAt
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
