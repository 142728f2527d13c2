package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"github.com/ifuryst/murmur/internal/config"
)

type CohereProvider struct {
	client *cohereclient.Client
	model  string
}

func NewCohereProvider(cfg *config.GeneratorConfig) *CohereProvider {
	httpClient := &http.Client{Timeout: 60 * time.Second}
	client := cohereclient.NewClient(
		cohereclient.WithToken(cfg.APIKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereProvider{client: client, model: cfg.Model}
}

func (p *CohereProvider) Name() string { return "cohere" }

func (p *CohereProvider) Complete(ctx context.Context, prompt Prompt) (string, error) {
	req := &cohere.ChatRequest{
		Message:     prompt.User,
		Model:       &p.model,
		Preamble:    &prompt.System,
		Temperature: &prompt.Temperature,
	}
	if prompt.MaxTokens > 0 {
		req.MaxTokens = &prompt.MaxTokens
	}

	resp, err := p.client.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("cohere chat error: %w", err)
	}
	if resp == nil {
		return "", errors.New("cohere chat returned empty response")
	}
	return strings.TrimSpace(resp.Text), nil
}
