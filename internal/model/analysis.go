package model

// Scores holds the four independent sub-scores, each in [0, 1]
type Scores struct {
	Impact    float64 `json:"impact"`    // How transformative the development is
	Timing    float64 `json:"timing"`    // How imminent the impact is
	Players   float64 `json:"players"`   // Breadth of major actors involved
	Precedent float64 `json:"precedent"` // How novel the development is
}

// Breakdown is the narrative explanation attached to an analysis
type Breakdown struct {
	What         string   `json:"what"`
	WhyItMatters string   `json:"whyItMatters"`
	Timing       string   `json:"timing"`
	Implications string   `json:"implications"`
	Connected    []string `json:"connected"`
}

// Analysis is the validated strategic analysis of one story.
// CompositeScore is always computed locally from Scores.
type Analysis struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	Scores         Scores    `json:"scores"`
	CompositeScore float64   `json:"compositeScore"`
	Takeaway       string    `json:"takeaway"`
	Breakdown      Breakdown `json:"breakdown"`
	Source         string    `json:"source"`
	Timestamp      string    `json:"timestamp"`
}

// Tier is the display classification of a composite score
type Tier string

const (
	TierHigh     Tier = "high"     // [0.8, 1]
	TierModerate Tier = "moderate" // [0.6, 0.8)
	TierLow      Tier = "low"      // [0, 0.6)
)

// Label returns the display string for the tier
func (t Tier) Label() string {
	switch t {
	case TierHigh:
		return "HIGH STRATEGIC IMPORTANCE"
	case TierModerate:
		return "MODERATE STRATEGIC IMPORTANCE"
	default:
		return "LOW STRATEGIC IMPORTANCE"
	}
}
