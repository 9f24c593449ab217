package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/strata/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"gemini", "gemini"},
		{"google", "gemini"},
		{"", "gemini"},
		{"openai", "openai"},
		{"Anthropic", "anthropic"},
		{"claude", "anthropic"},
		{"ollama", "ollama"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, APIKey: "k", Model: "m"})
			if err != nil {
				t.Fatalf("NewProvider(%q) failed: %v", tt.provider, err)
			}
			if p.Name() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, p.Name())
			}
		})
	}

	if _, err := NewProvider(Config{Provider: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestConfigFromModel_ReadsEnvKeys(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-from-env")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama.local:11434")

	cfg := model.DefaultConfig()
	cfg.HTTP.HTTPSProxy = "http://proxy.local:3128"

	c := ConfigFromModel(cfg)
	if c.APIKey != "gemini-from-env" {
		t.Errorf("expected key from GEMINI_API_KEY, got %q", c.APIKey)
	}
	if c.HTTPSProxy != "http://proxy.local:3128" {
		t.Errorf("expected proxy carried over, got %q", c.HTTPSProxy)
	}

	cfg.LLM.Provider = "ollama"
	if c := ConfigFromModel(cfg); c.BaseURL != "http://ollama.local:11434" {
		t.Errorf("expected OLLAMA_BASE_URL, got %q", c.BaseURL)
	}

	cfg.LLM.Provider = "gemini"
	cfg.LLM.APIKey = "explicit"
	if c := ConfigFromModel(cfg); c.APIKey != "explicit" {
		t.Errorf("expected explicit key to win, got %q", c.APIKey)
	}
}

func TestBackendError_Retryable(t *testing.T) {
	tests := []struct {
		err  *BackendError
		want bool
	}{
		{&BackendError{StatusCode: 0, Err: errors.New("connection reset")}, true},
		{&BackendError{StatusCode: 429}, true},
		{&BackendError{StatusCode: 500}, true},
		{&BackendError{StatusCode: 503}, true},
		{&BackendError{StatusCode: 400}, false},
		{&BackendError{StatusCode: 401}, false},
		{&BackendError{StatusCode: 0, Err: context.Canceled}, false},
	}

	for _, tt := range tests {
		if got := tt.err.Retryable(); got != tt.want {
			t.Errorf("Retryable(%d, %v) = %v, want %v", tt.err.StatusCode, tt.err.Err, got, tt.want)
		}
	}
}
