package generator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ifuryst/murmur/internal/config"
	"github.com/ifuryst/murmur/internal/models"
	"github.com/ifuryst/murmur/pkg/util"
)

// GeneratedPost is the model's reply for one platform.
type GeneratedPost struct {
	Platform models.Platform
	Body     string
	Hashtags []string
}

type Generator struct {
	provider Provider
	config   *config.GeneratorConfig
	limiter  *rate.Limiter
	logger   *zap.Logger
}

func NewGenerator(provider Provider, cfg *config.GeneratorConfig, logger *zap.Logger) *Generator {
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &Generator{
		provider: provider,
		config:   cfg,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger,
	}
}

// GeneratePosts asks for one post per supported platform in language. All
// platforms are requested concurrently; any failure fails the whole batch.
func (g *Generator) GeneratePosts(ctx context.Context, title, content, language string) ([]GeneratedPost, error) {
	languageName := models.LanguageName(language)
	content = util.Truncate(content, g.config.MaxContentChars, "")

	posts := make([]GeneratedPost, len(models.Platforms))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, spec := range models.Platforms {
		eg.Go(func() error {
			body, err := g.complete(egCtx, Prompt{
				System:      postSystemPrompt(languageName),
				User:        postUserPrompt(spec, languageName, title, content),
				Temperature: g.config.Temperature,
				MaxTokens:   g.config.MaxTokens,
			})
			if err != nil {
				return fmt.Errorf("failed to generate %s post: %w", spec.DisplayName, err)
			}
			if body == "" {
				return fmt.Errorf("failed to generate %s post: empty reply", spec.DisplayName)
			}
			posts[i] = GeneratedPost{
				Platform: spec.Platform,
				Body:     body,
				Hashtags: models.ParseHashtags(body),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.logger.Info("Generated posts",
		zap.String("provider", g.provider.Name()),
		zap.String("title", title),
		zap.String("language", language),
		zap.Int("count", len(posts)))
	return posts, nil
}

// ExtractKeywords asks for 5-7 comma-separated keywords.
func (g *Generator) ExtractKeywords(ctx context.Context, content string) ([]string, error) {
	reply, err := g.complete(ctx, Prompt{
		System:      keywordSystemPrompt,
		User:        keywordUserPrompt(util.Truncate(content, g.config.MaxContentChars, "")),
		Temperature: g.config.KeywordTemperature,
		MaxTokens:   g.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract keywords: %w", err)
	}
	return util.ParseTags(reply), nil
}

func (g *Generator) complete(ctx context.Context, prompt Prompt) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return g.provider.Complete(ctx, prompt)
}
