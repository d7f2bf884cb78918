package ai

import "github.com/hrygo/recollect/internal/profile"

// LLMConfig represents chat completion configuration for any
// OpenAI-compatible provider.
type LLMConfig struct {
	Provider    string // zai, deepseek, openai, siliconflow, dashscope, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.2
	Timeout     int     // request timeout in seconds (default: 120)
}

// EmbeddingConfig represents embedding provider configuration.
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// NewLLMConfig builds the chat configuration from the runtime profile.
func NewLLMConfig(p *profile.Profile) *LLMConfig {
	return &LLMConfig{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   2048,
		Temperature: 0.2,
		Timeout:     p.LLMTimeout,
	}
}

// NewEmbeddingConfig builds the embedding configuration from the runtime profile.
func NewEmbeddingConfig(p *profile.Profile) *EmbeddingConfig {
	return &EmbeddingConfig{
		Provider:   p.EmbeddingProvider,
		Model:      p.EmbeddingModel,
		APIKey:     p.EmbeddingAPIKey,
		BaseURL:    p.EmbeddingBaseURL,
		Dimensions: p.EmbeddingDimensions,
	}
}
