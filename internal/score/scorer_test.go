package score

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ppiankov/strata/internal/model"
)

func analysis(title string, composite float64) model.Analysis {
	return model.Analysis{Title: title, CompositeScore: composite}
}

func TestComposite_Mean(t *testing.T) {
	got := Composite(model.Scores{Impact: 0.9, Timing: 0.7, Players: 0.5, Precedent: 0.3})
	if math.Abs(got-0.6) > 1e-9 {
		t.Errorf("expected 0.6, got %v", got)
	}
}

func TestComposite_BoundsAndMeanProperty(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		s := model.Scores{
			Impact:    r.Float64(),
			Timing:    r.Float64(),
			Players:   r.Float64(),
			Precedent: r.Float64(),
		}
		got := Composite(s)
		if got < 0 || got > 1 {
			t.Fatalf("composite %v out of range for %+v", got, s)
		}
		mean := (s.Impact + s.Timing + s.Players + s.Precedent) / 4
		if math.Abs(got-mean) > 1e-9 {
			t.Fatalf("composite %v differs from mean %v", got, mean)
		}
	}
}

func TestComposite_Clamps(t *testing.T) {
	if got := Composite(model.Scores{Impact: 2, Timing: 2, Players: 2, Precedent: 2}); got != 1 {
		t.Errorf("expected clamp to 1, got %v", got)
	}
	if got := Composite(model.Scores{Impact: -1}); got != 0 {
		t.Errorf("expected clamp to 0, got %v", got)
	}
	if got := Composite(model.Scores{Impact: math.NaN()}); got != 0 {
		t.Errorf("expected NaN to map to 0, got %v", got)
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  model.Tier
	}{
		{1.0, model.TierHigh},
		{0.8, model.TierHigh},
		{math.Nextafter(0.8, 0), model.TierModerate},
		{0.7999, model.TierModerate},
		{0.6, model.TierModerate},
		{math.Nextafter(0.6, 0), model.TierLow},
		{0.5999, model.TierLow},
		{0, model.TierLow},
	}

	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestRank_OrdersDescendingStable(t *testing.T) {
	in := []model.Analysis{
		analysis("A", 0.9),
		analysis("B", 0.9),
		analysis("C", 0.3),
	}

	got := Rank(in)
	want := []string{"A", "B", "C"}
	for i, a := range got {
		if a.Title != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], a.Title)
		}
	}
}

func TestRank_TiesKeepArrivalOrder(t *testing.T) {
	in := []model.Analysis{
		analysis("low", 0.2),
		analysis("tie-1", 0.5),
		analysis("high", 0.95),
		analysis("tie-2", 0.5),
		analysis("tie-3", 0.5),
	}

	got := Rank(in)
	want := []string{"high", "tie-1", "tie-2", "tie-3", "low"}
	for i, a := range got {
		if a.Title != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], a.Title)
		}
	}
}

func TestRank_DoesNotModifyInput(t *testing.T) {
	in := []model.Analysis{analysis("a", 0.1), analysis("b", 0.9)}
	out := Rank(in)

	if len(out) > len(in) {
		t.Errorf("ranked list longer than input")
	}
	if in[0].Title != "a" || in[1].Title != "b" {
		t.Errorf("input was reordered: %+v", in)
	}
	if len(Rank(nil)) != 0 {
		t.Error("expected empty result for nil input")
	}
}

func TestBoard_AttachesTiers(t *testing.T) {
	board := Board([]model.Analysis{
		analysis("moderate", 0.6),
		analysis("high", 0.85),
		analysis("low", 0.1),
	})

	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board))
	}
	if board[0].Title != "high" || board[0].Tier != model.TierHigh {
		t.Errorf("unexpected first entry %+v", board[0])
	}
	if board[1].Tier != model.TierModerate || board[2].Tier != model.TierLow {
		t.Errorf("unexpected tiers %s, %s", board[1].Tier, board[2].Tier)
	}
	if board[0].Tier.Label() != "HIGH STRATEGIC IMPORTANCE" {
		t.Errorf("unexpected label %q", board[0].Tier.Label())
	}
}
