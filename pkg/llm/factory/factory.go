package factory

import (
	"ai-masterbrain-be/pkg/llm"
	"ai-masterbrain-be/pkg/llm/anthropic"
	"ai-masterbrain-be/pkg/llm/ollama"
	"ai-masterbrain-be/pkg/llm/openai"
	"fmt"
)

// ProviderConfig carries what any backend may need.
type ProviderConfig struct {
	Type      string // "ollama", "openai" or "anthropic"
	ModelName string
	BaseURL   string
	APIKey    string
}

func NewLLMProvider(cfg ProviderConfig) (llm.LLMProvider, error) {
	switch cfg.Type {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.ModelName), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return openai.NewOpenAIProvider(cfg.APIKey, cfg.ModelName), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return anthropic.NewAnthropicProvider(cfg.APIKey, cfg.ModelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Type)
	}
}
