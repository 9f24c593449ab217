package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newRobotsServer(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		_, _ = fmt.Fprint(w, body)
	}))
}

func TestRobotsChecker_AllowedAndDisallowed(t *testing.T) {
	server := newRobotsServer(t, "User-agent: *\nDisallow: /private\n", nil)
	defer server.Close()

	checker := NewRobotsChecker("strata/0.1", 5*time.Second)
	ctx := context.Background()

	delay, err := checker.Check(ctx, server.URL+"/deepseek-ai")
	if err != nil {
		t.Errorf("expected /deepseek-ai to be allowed, got %v", err)
	}
	if delay != 0 {
		t.Errorf("expected no crawl delay, got %v", delay)
	}

	_, err = checker.Check(ctx, server.URL+"/private/page")
	if !errors.Is(err, ErrDisallowed) {
		t.Errorf("expected ErrDisallowed, got %v", err)
	}
}

func TestRobotsChecker_AgentSpecificGroup(t *testing.T) {
	server := newRobotsServer(t, "User-agent: strata\nDisallow: /\nCrawl-delay: 2\n\nUser-agent: *\nAllow: /\n", nil)
	defer server.Close()

	checker := NewRobotsChecker("strata/0.1 (+https://example.com)", 5*time.Second)

	allowed, delay, err := checker.CanFetch(context.Background(), server.URL+"/listing")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if allowed {
		t.Error("expected strata agent to be disallowed")
	}
	if delay != 2*time.Second {
		t.Errorf("expected crawl delay 2s, got %v", delay)
	}
}

func TestRobotsChecker_CheckReturnsCrawlDelay(t *testing.T) {
	server := newRobotsServer(t, "User-agent: *\nAllow: /\nCrawl-delay: 5\n", nil)
	defer server.Close()

	checker := NewRobotsChecker("strata", 5*time.Second)
	delay, err := checker.Check(context.Background(), server.URL+"/listing")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if delay != 5*time.Second {
		t.Errorf("expected crawl delay 5s, got %v", delay)
	}
}

func TestRobotsChecker_CachesPerHost(t *testing.T) {
	var hits int32
	server := newRobotsServer(t, "User-agent: *\nAllow: /\n", &hits)
	defer server.Close()

	checker := NewRobotsChecker("strata", 5*time.Second)
	for i := 0; i < 3; i++ {
		_, _ = checker.Check(context.Background(), server.URL+"/page")
	}

	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", hits)
	}

	// A second checker has its own cache
	_, _ = NewRobotsChecker("strata", 5*time.Second).Check(context.Background(), server.URL+"/page")
	if atomic.LoadInt32(&hits) != 2 {
		t.Errorf("expected a fresh checker to refetch, got %d fetches", hits)
	}
}

func TestRobotsChecker_Unreachable(t *testing.T) {
	checker := NewRobotsChecker("strata", 200*time.Millisecond)

	allowed, _, err := checker.CanFetch(context.Background(), "http://127.0.0.1:1/page")
	if err != nil {
		t.Fatalf("expected no error for unreachable robots.txt, got %v", err)
	}
	if !allowed {
		t.Error("expected unreachable robots.txt to allow fetching")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"strata/0.1 (+https://github.com/ppiankov/strata)", "strata"},
		{"Mozilla/5.0", "Mozilla"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.in); got != tt.want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
