package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/strata/internal/model"
)

// delayAnalyzer finishes later stories first to scramble completion order
type delayAnalyzer struct {
	calls    int32
	inFlight int32
	maxSeen  int32
	fail     map[string]bool
}

func (a *delayAnalyzer) Analyze(ctx context.Context, story model.RawStory) (*model.Analysis, error) {
	atomic.AddInt32(&a.calls, 1)
	cur := atomic.AddInt32(&a.inFlight, 1)
	defer atomic.AddInt32(&a.inFlight, -1)
	for {
		old := atomic.LoadInt32(&a.maxSeen)
		if cur <= old || atomic.CompareAndSwapInt32(&a.maxSeen, old, cur) {
			break
		}
	}

	delay := time.Duration(10-len(story.Title)) * 3 * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if a.fail[story.Title] {
		return nil, errors.New("model returned garbage")
	}
	return &model.Analysis{Title: story.Title}, nil
}

func stories(titles ...string) []model.RawStory {
	out := make([]model.RawStory, len(titles))
	for i, title := range titles {
		out[i] = model.RawStory{Title: title, Source: "https://example.com/" + title}
	}
	return out
}

func TestBatchAnalyzer_PreservesArrivalOrder(t *testing.T) {
	analyzer := &delayAnalyzer{}
	batch := NewBatchAnalyzer(analyzer, 3)

	input := stories("a", "bb", "ccc", "dddd", "eeeee")
	results := batch.AnalyzeStories(context.Background(), input)

	if len(results) != len(input) {
		t.Fatalf("expected %d results, got %d", len(input), len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
		if r.Analysis == nil || r.Analysis.Title != input[i].Title {
			t.Errorf("result %d does not match story %q", i, input[i].Title)
		}
	}
}

func TestBatchAnalyzer_BoundsConcurrency(t *testing.T) {
	analyzer := &delayAnalyzer{}
	batch := NewBatchAnalyzer(analyzer, 2)

	batch.AnalyzeStories(context.Background(), stories("a", "b", "c", "d", "e", "f", "g", "h"))

	if max := atomic.LoadInt32(&analyzer.maxSeen); max > 2 {
		t.Errorf("expected at most 2 analyses in flight, saw %d", max)
	}
	if calls := atomic.LoadInt32(&analyzer.calls); calls != 8 {
		t.Errorf("expected 8 calls, got %d", calls)
	}
}

func TestBatchAnalyzer_FailuresStayPerStory(t *testing.T) {
	analyzer := &delayAnalyzer{fail: map[string]bool{"bb": true}}
	batch := NewBatchAnalyzer(analyzer, 2)

	results := batch.AnalyzeStories(context.Background(), stories("a", "bb", "ccc"))

	if results[1].GetError() == nil {
		t.Error("expected story bb to fail")
	}
	if results[0].GetError() != nil || results[2].GetError() != nil {
		t.Error("expected sibling stories to succeed")
	}
}

func TestBatchAnalyzer_Empty(t *testing.T) {
	batch := NewBatchAnalyzer(&delayAnalyzer{}, 0)
	results := batch.AnalyzeStories(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestBatchAnalyzer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := NewBatchAnalyzer(&delayAnalyzer{}, 1)
	input := stories("a", "b", "c")
	results := batch.AnalyzeStories(ctx, input)

	if len(results) != len(input) {
		t.Fatalf("expected a result per story, got %d", len(results))
	}
	for _, r := range results {
		if r.GetError() == nil {
			t.Errorf("expected story %q to fail on cancelled context", r.Story.Title)
		}
	}
}
