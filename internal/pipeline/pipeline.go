package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/strata/internal/cache"
	"github.com/ppiankov/strata/internal/extract"
	"github.com/ppiankov/strata/internal/llm"
	"github.com/ppiankov/strata/internal/model"
	"github.com/ppiankov/strata/internal/normalize"
	"github.com/ppiankov/strata/internal/score"
	"github.com/ppiankov/strata/internal/source"
	"github.com/ppiankov/strata/internal/util"
	"github.com/ppiankov/strata/internal/worker"
)

// ErrUnknownSource is returned for a source name that is not configured
var ErrUnknownSource = errors.New("unknown source")

// ErrNoProvider is returned when analysis is requested without a backend
var ErrNoProvider = errors.New("no LLM provider configured")

// Pipeline orchestrates ingestion, normalization, extraction and ranking
type Pipeline struct {
	config     *model.Config
	registry   *source.Registry
	normalizer *normalize.Normalizer
	provider   llm.Provider // nil disables analysis
	extractor  *extract.Extractor
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger shared by every stage
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New wires a pipeline from configuration. provider may be nil when only
// source retrieval is needed.
func New(cfg *model.Config, provider llm.Provider, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		config:   cfg,
		provider: provider,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	fetchOpts := []source.FetcherOption{source.WithLimiter(limiter)}
	if cfg.Cache.Enabled {
		fetchOpts = append(fetchOpts, source.WithCache(cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL), cfg.Cache.TTL))
	}
	if cfg.HTTP.RespectRobots {
		fetchOpts = append(fetchOpts, source.WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)))
	}

	registry, err := source.NewRegistry(cfg, source.NewFetcher(cfg.HTTP, fetchOpts...))
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}
	p.registry = registry

	p.normalizer = normalize.New(cfg.Extract.SummaryMaxBytes, normalize.WithLogger(p.logger))

	if provider != nil {
		p.extractor = extract.FromConfig(provider, cfg,
			extract.WithLimiter(limiter),
			extract.WithLogger(p.logger))
	}

	return p, nil
}

// Sources returns the configured source names in configuration order
func (p *Pipeline) Sources() []string {
	return p.registry.Names()
}

// FetchSource runs one adapter and returns its raw output
func (p *Pipeline) FetchSource(ctx context.Context, name string) ([]model.RawStory, error) {
	adapter, ok := p.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return adapter.Fetch(ctx, p.limitFor(name))
}

// Ingestion is the combined output of every source for one cycle
type Ingestion struct {
	Stories []model.RawStory     // Normalized, deduplicated, in arrival order
	Sources []model.SourceStatus // One per adapter, in configuration order
	Dropped model.DropCounts
}

// FetchAll runs every adapter concurrently. A failing source is recorded
// in its status and never affects the others. Stories are normalized and
// deduplicated by source URL; the first occurrence wins.
func (p *Pipeline) FetchAll(ctx context.Context) *Ingestion {
	adapters := p.registry.All()
	fetched := make([][]model.RawStory, len(adapters))
	errs := make([]error, len(adapters))

	var g errgroup.Group
	for i, a := range adapters {
		i, a := i, a
		g.Go(func() error {
			fetched[i], errs[i] = a.Fetch(ctx, p.limitFor(a.Name()))
			return nil
		})
	}
	_ = g.Wait()

	out := &Ingestion{
		Stories: []model.RawStory{},
		Sources: make([]model.SourceStatus, len(adapters)),
	}
	seen := make(map[string]bool)

	for i, a := range adapters {
		status := model.SourceStatus{
			Name:    a.Name(),
			Kind:    string(a.Kind()),
			URL:     a.URL(),
			Stories: len(fetched[i]),
		}
		if errs[i] != nil {
			status.Error = errs[i].Error()
			p.logger.Warn("source failed", "source", a.Name(), "error", errs[i])
		}
		out.Sources[i] = status

		kept, dropped := p.normalizer.NormalizeAll(fetched[i])
		out.Dropped.Normalization += dropped
		for _, story := range kept {
			if seen[story.Source] {
				out.Dropped.Duplicate++
				p.logger.Debug("duplicate story", "source", story.Source, "title", story.Title)
				continue
			}
			seen[story.Source] = true
			out.Stories = append(out.Stories, story)
		}
	}

	return out
}

// Analyze runs the extractor on a single story
func (p *Pipeline) Analyze(ctx context.Context, story model.RawStory) (*model.Analysis, error) {
	if p.extractor == nil {
		return nil, ErrNoProvider
	}
	return p.extractor.Analyze(ctx, story)
}

// Run executes one full cycle and returns the ranked board. Failed
// stories and sources are counted and omitted; only a missing provider
// or a cancelled context fails the cycle.
func (p *Pipeline) Run(ctx context.Context) (*model.Board, error) {
	if p.extractor == nil {
		return nil, ErrNoProvider
	}

	ingestion := p.FetchAll(ctx)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch sources: %w", err)
	}

	batch := worker.NewBatchAnalyzer(p.extractor, p.config.Extract.Workers)
	results := batch.AnalyzeStories(ctx, ingestion.Stories)

	dropped := ingestion.Dropped
	analyses := make([]model.Analysis, 0, len(results))
	for _, r := range results {
		if r.Error == nil {
			analyses = append(analyses, *r.Analysis)
			continue
		}

		var extractErr *extract.ExtractionError
		if errors.As(r.Error, &extractErr) {
			dropped.Extraction++
		} else {
			dropped.Backend++
		}
		p.logger.Warn("story analysis failed", "title", r.Story.Title, "source", r.Story.Source, "error", r.Error)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze stories: %w", err)
	}

	board := &model.Board{
		GeneratedAt:   p.now().UTC(),
		Stories:       score.Board(analyses),
		Sources:       ingestion.Sources,
		Dropped:       dropped,
		Backend:       p.backendLabel(),
		FailedSources: []string{},
	}
	for _, s := range ingestion.Sources {
		if s.Failed() {
			board.FailedSources = append(board.FailedSources, s.Name)
		}
	}

	p.logger.Info("cycle complete",
		"stories", len(board.Stories),
		"dropped", dropped.Total(),
		"failed_sources", len(board.FailedSources))

	return board, nil
}

func (p *Pipeline) limitFor(name string) int {
	for _, s := range p.config.Sources {
		if s.Name == name && s.Limit > 0 {
			return s.Limit
		}
	}
	return model.DefaultSourceLimit
}

func (p *Pipeline) backendLabel() string {
	if p.provider == nil {
		return ""
	}
	if p.config.LLM.Model == "" {
		return p.provider.Name()
	}
	return p.provider.Name() + "/" + p.config.LLM.Model
}
