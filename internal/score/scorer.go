package score

import (
	"math"
	"sort"

	"github.com/ppiankov/strata/internal/model"
)

// Tier thresholds on the composite score
const (
	HighThreshold     = 0.8
	ModerateThreshold = 0.6
)

// Composite returns the mean of the four sub-scores clamped to [0, 1].
// NaN inputs yield 0.
func Composite(s model.Scores) float64 {
	mean := (s.Impact + s.Timing + s.Players + s.Precedent) / 4
	if math.IsNaN(mean) {
		return 0
	}
	return math.Max(0, math.Min(1, mean))
}

// Classify maps a composite score to its display tier
func Classify(composite float64) model.Tier {
	switch {
	case composite >= HighThreshold:
		return model.TierHigh
	case composite >= ModerateThreshold:
		return model.TierModerate
	default:
		return model.TierLow
	}
}

// Rank returns the analyses ordered by composite score, highest first.
// Equal scores keep their input (arrival) order. The input is not modified.
func Rank(analyses []model.Analysis) []model.Analysis {
	ranked := make([]model.Analysis, len(analyses))
	copy(ranked, analyses)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompositeScore > ranked[j].CompositeScore
	})
	return ranked
}

// Board ranks analyses and attaches their tiers; position is index + 1
func Board(analyses []model.Analysis) []model.RankedStory {
	ranked := Rank(analyses)
	out := make([]model.RankedStory, len(ranked))
	for i, a := range ranked {
		out[i] = model.RankedStory{Analysis: a, Tier: Classify(a.CompositeScore)}
	}
	return out
}
