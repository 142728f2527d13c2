// Package generator turns extracted page text into platform-specific posts
// using a generative text API.
package generator

import (
	"context"
	"fmt"

	"github.com/ifuryst/murmur/internal/config"
)

// Prompt is a single system + user exchange.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Provider completes a prompt with a model and returns the reply text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// NewProvider builds the provider selected by generator.provider.
func NewProvider(cfg *config.GeneratorConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", cfg.Provider)
	}
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIProvider(cfg), nil
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	case "cohere":
		return NewCohereProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
}
