package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/strata/internal/llm"
	"github.com/ppiankov/strata/internal/model"
	"github.com/ppiankov/strata/internal/validate"
	"github.com/ppiankov/strata/internal/worker"
)

const (
	maxSchemaRetries  = 1
	maxBackendRetries = 3
)

// retryAfterFunc is replaced in tests to skip backoff delays
var retryAfterFunc = time.After

// Extractor turns a story into a validated analysis with one model call
type Extractor struct {
	provider       llm.Provider
	limiter        *worker.Limiter
	logger         *slog.Logger
	maxTokens      int
	schemaRetries  int
	backendRetries int
	newID          func() string
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLimiter throttles backend calls under the "llm:<provider>" key
func WithLimiter(l *worker.Limiter) Option {
	return func(e *Extractor) { e.limiter = l }
}

// WithLogger sets the logger for rejected outputs and retries
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithMaxTokens caps the response length
func WithMaxTokens(n int) Option {
	return func(e *Extractor) { e.maxTokens = n }
}

// WithSchemaRetries sets how many times a schema-violating response is
// re-requested (0 or 1)
func WithSchemaRetries(n int) Option {
	return func(e *Extractor) { e.schemaRetries = clamp(n, 0, maxSchemaRetries) }
}

// WithBackendRetries sets how many times a retryable backend failure is
// repeated (at most 3)
func WithBackendRetries(n int) Option {
	return func(e *Extractor) { e.backendRetries = clamp(n, 0, maxBackendRetries) }
}

// New creates an Extractor over provider
func New(provider llm.Provider, opts ...Option) *Extractor {
	e := &Extractor{
		provider: provider,
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromConfig builds an Extractor using the extract and LLM settings of cfg
func FromConfig(provider llm.Provider, cfg *model.Config, opts ...Option) *Extractor {
	base := []Option{
		WithMaxTokens(cfg.LLM.MaxTokens),
		WithSchemaRetries(cfg.Extract.SchemaRetries),
		WithBackendRetries(cfg.Extract.BackendRetries),
	}
	return New(provider, append(base, opts...)...)
}

// Analyze produces the analysis of one story. It returns *ExtractionError
// for unusable output and *llm.BackendError for backend failures.
func (e *Extractor) Analyze(ctx context.Context, story model.RawStory) (*model.Analysis, error) {
	req := llm.GenerateRequest{
		System:    SystemPrompt,
		Prompt:    BuildPrompt(story),
		MaxTokens: e.maxTokens,
		JSON:      true,
	}

	for attempt := 0; ; attempt++ {
		resp, err := e.generate(ctx, req)
		if err != nil {
			return nil, err
		}

		result := validate.ParseAnalysis(resp.Text)
		if result.OK() {
			analysis := result.Analysis
			analysis.ID = e.newID()
			analysis.Title = story.Title
			analysis.Source = story.Source
			analysis.Timestamp = story.Published()
			return &analysis, nil
		}

		e.logger.Warn("model output rejected",
			"title", story.Title,
			"attempt", attempt+1,
			"violations", result.Violations,
			"raw_output", resp.Text)

		if attempt >= e.schemaRetries {
			return nil, &ExtractionError{
				Story:      story,
				RawOutput:  resp.Text,
				Violations: result.Violations,
			}
		}
	}
}

// generate calls the backend, repeating retryable failures with backoff
func (e *Extractor) generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	for attempt := 0; ; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.WaitKey(ctx, "llm:"+e.provider.Name()); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
		}

		resp, err := e.provider.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		var backendErr *llm.BackendError
		if !errors.As(err, &backendErr) {
			return nil, err
		}
		if attempt >= e.backendRetries || !backendErr.Retryable() || ctx.Err() != nil {
			return nil, err
		}

		delay := time.Duration(1<<attempt) * time.Second
		e.logger.Debug("retrying backend call",
			"provider", e.provider.Name(),
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", err, ctx.Err())
		case <-retryAfterFunc(delay):
		}
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
