package worker

import (
	"context"
	"sort"

	"github.com/ppiankov/strata/internal/model"
)

// Analyzer turns one story into an analysis
type Analyzer interface {
	Analyze(ctx context.Context, story model.RawStory) (*model.Analysis, error)
}

// AnalyzeJob analyzes a single story. Index is the story's arrival position.
type AnalyzeJob struct {
	Index    int
	Story    model.RawStory
	Analyzer Analyzer
}

// Execute runs the analysis
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	analysis, err := j.Analyzer.Analyze(ctx, j.Story)
	return &AnalyzeResult{
		Index:    j.Index,
		Story:    j.Story,
		Analysis: analysis,
		Error:    err,
	}
}

// AnalyzeResult is the outcome for one story
type AnalyzeResult struct {
	Index    int
	Story    model.RawStory
	Analysis *model.Analysis
	Error    error
}

// GetError returns the analysis error, if any
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchAnalyzer fans analyses out over a bounded pool
type BatchAnalyzer struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchAnalyzer creates a batch analyzer with at most concurrency
// analyses in flight
func NewBatchAnalyzer(analyzer Analyzer, concurrency int) *BatchAnalyzer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchAnalyzer{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// AnalyzeStories analyzes every story and returns one result per story,
// ordered by arrival (input) position regardless of completion order
func (b *BatchAnalyzer) AnalyzeStories(ctx context.Context, stories []model.RawStory) []*AnalyzeResult {
	if len(stories) == 0 {
		return []*AnalyzeResult{}
	}

	workers := b.concurrency
	if workers > len(stories) {
		workers = len(stories)
	}

	pool := NewPoolWithContext(ctx, workers)
	pool.Start()

	for i, story := range stories {
		job := &AnalyzeJob{
			Index:    i,
			Story:    story,
			Analyzer: b.analyzer,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*AnalyzeResult, 0, len(stories))
	seen := make(map[int]bool, len(results))
	for _, r := range results {
		ar := r.(*AnalyzeResult)
		seen[ar.Index] = true
		out = append(out, ar)
	}

	// Stories never picked up because the context ended still get a result
	for i, story := range stories {
		if !seen[i] {
			out = append(out, &AnalyzeResult{Index: i, Story: story, Error: context.Cause(ctx)})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
