package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/strata/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "gemini", "google", "":
		return NewGeminiProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: gemini, openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the application config to llm.Config, filling
// credentials from the environment when the config leaves them empty
func ConfigFromModel(cfg *model.Config) Config {
	c := Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  cfg.LLM.MaxTokens,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
	if c.APIKey == "" {
		c.APIKey = APIKeyFromEnv(c.Provider)
	}
	if c.BaseURL == "" && strings.EqualFold(c.Provider, "ollama") {
		c.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return c
}

// APIKeyFromEnv returns the conventional API key variable for provider
func APIKeyFromEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini", "google", "":
		return firstNonEmpty(os.Getenv("GOOGLE_API_KEY"), os.Getenv("GEMINI_API_KEY"))
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}
