package model

import "time"

// DefaultSourceLimit bounds the number of stories a single source returns
const DefaultSourceLimit = 5

// DefaultSummaryMaxBytes caps story summaries to bound prompt size
const DefaultSummaryMaxBytes = 2048

// Config is the complete strata configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Sources      []SourceConfig     `yaml:"sources" mapstructure:"sources"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Extract      ExtractConfig      `yaml:"extract" mapstructure:"extract"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
}

// HTTPConfig controls outbound requests to sources
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"` // Consult robots.txt before scraping listings
}

// CacheConfig controls the in-memory cache of fetched source bodies
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// RateLimitingConfig is applied per host (sources) and per backend (LLM)
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// SourceKind selects the adapter implementation for a source
type SourceKind string

const (
	SourceKindFeed    SourceKind = "feed"    // RSS, Atom or JSON feed
	SourceKindListing SourceKind = "listing" // Scraped HTML listing page
)

// SourceConfig describes one configured origin
type SourceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Kind        SourceKind    `yaml:"kind" mapstructure:"kind"`
	URL         string        `yaml:"url" mapstructure:"url"`
	FallbackURL string        `yaml:"fallback_url,omitempty" mapstructure:"fallback_url"` // feed only: used when an entry has no link
	Limit       int           `yaml:"limit" mapstructure:"limit"`
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	Listing     ListingConfig `yaml:"listing,omitempty" mapstructure:"listing"`
}

// ListingConfig holds the structural selectors of an HTML listing page
type ListingConfig struct {
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Block   string `yaml:"block,omitempty" mapstructure:"block"`
	Title   string `yaml:"title,omitempty" mapstructure:"title"`
	Summary string `yaml:"summary,omitempty" mapstructure:"summary"`
	Link    string `yaml:"link,omitempty" mapstructure:"link"`

	// TitleFromSummary derives the title from the start of the summary
	// (timelines whose items have no headline of their own)
	TitleFromSummary bool `yaml:"title_from_summary,omitempty" mapstructure:"title_from_summary"`
	TitleMax         int  `yaml:"title_max,omitempty" mapstructure:"title_max"`
}

// LLMConfig holds text-generation backend configuration
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // gemini, openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExtractConfig controls the analysis stage
type ExtractConfig struct {
	Workers         int `yaml:"workers" mapstructure:"workers"`
	SummaryMaxBytes int `yaml:"summary_max_bytes" mapstructure:"summary_max_bytes"`
	SchemaRetries   int `yaml:"schema_retries" mapstructure:"schema_retries"`   // 0 or 1
	BackendRetries  int `yaml:"backend_retries" mapstructure:"backend_retries"` // at most 3
}

// OutputConfig controls report files written by the CLI
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	JSON    string `yaml:"json,omitempty" mapstructure:"json"`
	MD      string `yaml:"md,omitempty" mapstructure:"md"`
	HTML    string `yaml:"html,omitempty" mapstructure:"html"`
}

// ServerConfig controls the HTTP surface and the refresh schedule
type ServerConfig struct {
	Addr    string `yaml:"addr" mapstructure:"addr"`
	Refresh string `yaml:"refresh" mapstructure:"refresh"` // cron spec used by watch
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       20 * time.Second,
			UserAgent:     "strata/0.1 (+https://github.com/ppiankov/strata)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Sources: DefaultSources(),
		LLM: LLMConfig{
			Provider:  "gemini",
			Model:     "gemini-2.0-flash",
			Timeout:   60,
			MaxTokens: 1500,
		},
		Extract: ExtractConfig{
			Workers:         4,
			SummaryMaxBytes: DefaultSummaryMaxBytes,
			SchemaRetries:   0,
			BackendRetries:  1,
		},
		Output: OutputConfig{
			JSON: "board.json",
		},
		Server: ServerConfig{
			Addr:    ":8080",
			Refresh: "@every 30m",
		},
	}
}

// DefaultSources returns the built-in source set
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:        "arxiv",
			Kind:        SourceKindFeed,
			URL:         "https://arxiv.org/rss/cs.AI",
			FallbackURL: "https://arxiv.org",
			Limit:       DefaultSourceLimit,
			Enabled:     true,
		},
		{
			Name:        "openai",
			Kind:        SourceKindFeed,
			URL:         "https://openai.com/blog/rss.xml",
			FallbackURL: "https://openai.com/blog",
			Limit:       DefaultSourceLimit,
			Enabled:     true,
		},
		{
			Name:    "deepseek",
			Kind:    SourceKindListing,
			URL:     "https://github.com/deepseek-ai",
			Limit:   DefaultSourceLimit,
			Enabled: true,
			Listing: ListingConfig{
				BaseURL: "https://github.com",
				Block:   ".Box-row",
				Title:   "h3",
				Summary: "p",
				Link:    "a",
			},
		},
		{
			Name:    "nitter",
			Kind:    SourceKindListing,
			URL:     "https://nitter.net/OpenAI",
			Limit:   DefaultSourceLimit,
			Enabled: false,
			Listing: ListingConfig{
				BaseURL:          "https://nitter.net",
				Block:            "div.timeline-item",
				Summary:          ".tweet-content",
				Link:             "a.tweet-date",
				TitleFromSummary: true,
				TitleMax:         80,
			},
		},
	}
}

// EnabledSources returns the enabled sources in configuration order
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}
