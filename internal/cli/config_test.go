package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/strata/internal/llm"
	"github.com/ppiankov/strata/internal/model"
	"github.com/ppiankov/strata/internal/report"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(func() {
		viper.Reset()
		cfgFile = ""
	})
}

const testConfigYAML = `
llm:
  provider: openai
  model: file-model
extract:
  workers: 2
cache:
  ttl: 90s
sources:
  - name: custom
    kind: feed
    url: https://example.com/feed.xml
    limit: 3
    enabled: true
`

func TestLoadConfig_FileAndEnv(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfigYAML), 0644); err != nil {
		t.Fatal(err)
	}
	cfgFile = path
	t.Setenv("STRATA_LLM_MODEL", "env-model")

	initConfig()
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.LLM.Provider != "openai" {
		t.Errorf("provider = %q, want openai from file", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "env-model" {
		t.Errorf("model = %q, want env override", cfg.LLM.Model)
	}
	if cfg.Extract.Workers != 2 {
		t.Errorf("workers = %d, want 2", cfg.Extract.Workers)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("cache ttl = %v, want 90s", cfg.Cache.TTL)
	}

	// Untouched settings keep their defaults
	if cfg.LLM.Timeout != 60 || !cfg.HTTP.RespectRobots {
		t.Errorf("defaults lost: timeout=%d robots=%v", cfg.LLM.Timeout, cfg.HTTP.RespectRobots)
	}

	// The configured source list replaces the defaults
	if len(cfg.Sources) != 1 {
		t.Fatalf("sources = %+v, want only custom", cfg.Sources)
	}
	src := cfg.Sources[0]
	if src.Name != "custom" || src.Kind != model.SourceKindFeed || src.Limit != 3 || !src.Enabled {
		t.Errorf("source = %+v", src)
	}
	if src.FallbackURL != "" {
		t.Errorf("fallback url leaked from defaults: %q", src.FallbackURL)
	}
}

func TestLoadConfig_EnvOverridesEveryGroup(t *testing.T) {
	resetViper(t)
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")

	t.Setenv("STRATA_EXTRACT_SUMMARY_MAX_BYTES", "2048")
	t.Setenv("STRATA_RATE_LIMITING_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("STRATA_RATE_LIMITING_BURST_SIZE", "7")
	t.Setenv("STRATA_HTTP_MAX_BODY_BYTES", "1024")

	initConfig()
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Extract.SummaryMaxBytes != 2048 {
		t.Errorf("summary_max_bytes = %d, want 2048", cfg.Extract.SummaryMaxBytes)
	}
	if cfg.RateLimiting.RequestsPerSecond != 0.5 || cfg.RateLimiting.BurstSize != 7 {
		t.Errorf("rate_limiting = %+v", cfg.RateLimiting)
	}
	if cfg.HTTP.MaxBodyBytes != 1024 {
		t.Errorf("max_body_bytes = %d, want 1024", cfg.HTTP.MaxBodyBytes)
	}
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	resetViper(t)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if len(cfg.Sources) != len(model.DefaultSources()) {
		t.Errorf("sources = %d, want defaults", len(cfg.Sources))
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("provider = %q, want gemini", cfg.LLM.Provider)
	}
}

func TestWriteDefaultConfig_RoundTrip(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), ".strata", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# strata configuration file") {
		t.Error("header comment missing")
	}
	if !strings.Contains(string(data), "timeout: 20s") {
		t.Error("durations should be written in human form")
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("read written config: %v", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	want := model.DefaultConfig()
	if cfg.HTTP != want.HTTP || cfg.Cache != want.Cache || cfg.LLM != want.LLM || cfg.Extract != want.Extract {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", cfg, want)
	}
	if len(cfg.Sources) != len(want.Sources) {
		t.Fatalf("sources = %d, want %d", len(cfg.Sources), len(want.Sources))
	}
	for i := range want.Sources {
		if cfg.Sources[i] != want.Sources[i] {
			t.Errorf("source %d = %+v, want %+v", i, cfg.Sources[i], want.Sources[i])
		}
	}
}

func TestWriteDefaultConfig_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("keep: me\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Fatal("expected error for existing file")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "keep: me\n" {
		t.Error("existing config was modified")
	}
}

func TestApplyLLMFlags(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{}
		addLLMFlags(cmd)
		return cmd
	}

	t.Run("provider switch resets model and key", func(t *testing.T) {
		cfg := model.DefaultConfig()
		cfg.LLM.APIKey = "gemini-key"
		cmd := newCmd()
		_ = cmd.Flags().Set("llm-provider", "anthropic")

		applyLLMFlags(cmd, cfg)
		if cfg.LLM.Provider != "anthropic" || cfg.LLM.Model != "" || cfg.LLM.APIKey != "" {
			t.Errorf("llm = %+v", cfg.LLM)
		}
	})

	t.Run("model only", func(t *testing.T) {
		cfg := model.DefaultConfig()
		cmd := newCmd()
		_ = cmd.Flags().Set("llm-model", "gemini-1.5-pro")

		applyLLMFlags(cmd, cfg)
		if cfg.LLM.Provider != "gemini" || cfg.LLM.Model != "gemini-1.5-pro" {
			t.Errorf("llm = %+v", cfg.LLM)
		}
	})

	t.Run("no flags", func(t *testing.T) {
		cfg := model.DefaultConfig()
		applyLLMFlags(newCmd(), cfg)
		if cfg.LLM != model.DefaultConfig().LLM {
			t.Errorf("llm changed without flags: %+v", cfg.LLM)
		}
	})
}

func TestWriteBoard(t *testing.T) {
	dir := t.TempDir()
	out := model.OutputConfig{
		JSON: filepath.Join(dir, "board.json"),
		HTML: filepath.Join(dir, "site", "board.html"),
	}
	board := &model.Board{Stories: []model.RankedStory{}, FailedSources: []string{}}

	if err := writeBoard(report.NewRenderer(), board, out); err != nil {
		t.Fatalf("writeBoard: %v", err)
	}
	for _, path := range []string{out.JSON, out.HTML} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s not written: %v", path, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "board.md")); !os.IsNotExist(err) {
		t.Error("markdown written without a path")
	}
}

type stubProvider struct {
	available bool
	deadline  bool
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	return &llm.GenerateResponse{Text: "{}"}, nil
}

func (p *stubProvider) IsAvailable(ctx context.Context) bool {
	_, p.deadline = ctx.Deadline()
	return p.available
}

func TestCheckProvider(t *testing.T) {
	up := &stubProvider{available: true}
	if err := checkProvider(context.Background(), up); err != nil {
		t.Errorf("available backend rejected: %v", err)
	}
	if !up.deadline {
		t.Error("availability check ran without a deadline")
	}

	err := checkProvider(context.Background(), &stubProvider{})
	if err == nil {
		t.Fatal("expected an error for an unavailable backend")
	}
	if !strings.Contains(err.Error(), "stub backend is not available") {
		t.Errorf("unexpected error %q", err)
	}
}
