package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/strata/internal/cache"
	"github.com/ppiankov/strata/internal/model"
	"github.com/ppiankov/strata/internal/util"
	"github.com/ppiankov/strata/internal/worker"
)

const maxFetchAttempts = 3

// fetchAfterFunc is replaced in tests to skip backoff delays
var fetchAfterFunc = time.After

// StatusError reports a non-2xx response from a source
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, e.Status)
}

// Fetcher retrieves raw source bodies over HTTP
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64

	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *worker.Limiter
	robots   *util.RobotsChecker
}

// FetcherOption configures optional Fetcher collaborators
type FetcherOption func(*Fetcher)

// WithCache serves repeated fetches of the same URL from c for ttl
func WithCache(c cache.Cache, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithLimiter throttles requests per host
func WithLimiter(l *worker.Limiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithRobots makes GetPage honour robots.txt
func WithRobots(r *util.RobotsChecker) FetcherOption {
	return func(f *Fetcher) { f.robots = r }
}

// NewFetcher creates a Fetcher from HTTP settings
func NewFetcher(cfg model.HTTPConfig, opts ...FetcherOption) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 5_000_000
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a single GET and returns the (size-limited) body
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/html;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// FetchWithRetry retries transient failures with exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch: %w", ctx.Err())
			case <-fetchAfterFunc(time.Duration(1<<(attempt-1)) * time.Second):
			}
		}

		body, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// Get returns the body of rawURL, consulting the cache and rate limiter
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	key := cache.Key(rawURL)
	if f.cache != nil {
		if body, ok := f.cache.Get(key); ok {
			return body, nil
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		_ = f.cache.Set(key, body, f.cacheTTL)
	}
	return body, nil
}

// GetPage is Get for scraped pages: robots.txt is checked first and its
// crawl delay, if any, slows the host's limiter
func (f *Fetcher) GetPage(ctx context.Context, rawURL string) ([]byte, error) {
	if f.robots != nil {
		delay, err := f.robots.Check(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if f.limiter != nil && delay > 0 {
			if err := f.limiter.ApplyCrawlDelay(rawURL, delay); err != nil {
				return nil, err
			}
		}
	}
	return f.Get(ctx, rawURL)
}

func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	return strings.HasPrefix(msg, "fetch: ")
}
