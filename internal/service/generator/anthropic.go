package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"github.com/ifuryst/murmur/internal/config"
)

// AnthropicProvider calls the Messages API through llmkit. llmkit takes no
// context, so cancellation is only observed before the call starts.
type AnthropicProvider struct {
	apiKey string
	model  string
}

func NewAnthropicProvider(cfg *config.GeneratorConfig) *AnthropicProvider {
	return &AnthropicProvider{apiKey: cfg.APIKey, model: cfg.Model}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	settings := types.RequestSettings{
		Model:       p.model,
		MaxTokens:   prompt.MaxTokens,
		Temperature: prompt.Temperature,
	}
	response, err := anthropic.PromptWithSettings(prompt.System, prompt.User, "", p.apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	if len(response.Content) == 0 {
		return "", errors.New("anthropic: no content in response")
	}
	return strings.TrimSpace(response.Content[0].Text), nil
}
