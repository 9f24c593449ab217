package model

import "time"

// Board is the outcome of one ranking cycle, handed to the presentation layer
type Board struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Stories     []RankedStory  `json:"stories"`          // Ranked, best first; rank is index + 1
	Sources     []SourceStatus `json:"sources"`          // One entry per enabled source, in config order
	Dropped     DropCounts     `json:"dropped"`          // Stories that never reached the ranking
	Backend     string         `json:"backend,omitempty"` // provider/model used for extraction

	// FailedSources names the sources that failed outright this cycle
	FailedSources []string `json:"failedSources"`
}

// RankedStory pairs an analysis with its display tier
type RankedStory struct {
	Analysis
	Tier Tier `json:"tier"`
}

// SourceStatus reports how a single source fared during a cycle
type SourceStatus struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	URL     string `json:"url"`
	Stories int    `json:"stories"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the whole source failed
func (s SourceStatus) Failed() bool {
	return s.Error != ""
}

// DropCounts tallies stories excluded from the board by stage
type DropCounts struct {
	Duplicate     int `json:"duplicate"`
	Normalization int `json:"normalization"`
	Extraction    int `json:"extraction"` // Schema or range violations in model output
	Backend       int `json:"backend"`    // Transport, auth or status failures
}

// Total returns the number of stories dropped at any stage
func (d DropCounts) Total() int {
	return d.Duplicate + d.Normalization + d.Extraction + d.Backend
}
