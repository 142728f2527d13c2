package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/config"
)

// DefaultFeedLimit is how many feed items are processed when no limit is given.
const DefaultFeedLimit = 5

// FeedItem is one entry discovered in an RSS or Atom feed.
type FeedItem struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// FeedItemResult reports what happened to one feed item.
type FeedItemResult struct {
	Item      FeedItem `json:"item"`
	ContentID string   `json:"content_id,omitempty"`
	Duplicate bool     `json:"duplicate,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type FeedReader struct {
	parser *gofeed.Parser
	logger *zap.Logger
}

func NewFeedReader(cfg *config.ExtractorConfig, logger *zap.Logger) *FeedReader {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}

	parser := gofeed.NewParser()
	parser.UserAgent = cfg.UserAgent
	parser.Client = &http.Client{Timeout: timeout}
	return &FeedReader{parser: parser, logger: logger}
}

// Items fetches feedURL and returns its linked items, newest first. Items
// without a usable link are skipped.
func (r *FeedReader) Items(ctx context.Context, feedURL string) ([]FeedItem, error) {
	parsed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	items := make([]FeedItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		link := extractLink(entry)
		if link == "" {
			continue
		}
		items = append(items, FeedItem{
			URL:         link,
			Title:       strings.TrimSpace(entry.Title),
			PublishedAt: entry.PublishedParsed,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedAt, items[j].PublishedAt
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})

	r.logger.Debug("Feed parsed", zap.String("feed", feedURL), zap.Int("items", len(items)))
	return items, nil
}

// extractLink prefers the explicit link and falls back to an http GUID.
func extractLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}
	if strings.HasPrefix(entry.GUID, "http") {
		return entry.GUID
	}
	return ""
}

// ProcessFeed runs ProcessURL for the newest limit items of a feed. Item
// failures and duplicates are reported per item and do not stop the batch.
func (a *Assistant) ProcessFeed(ctx context.Context, feedURL, language string, limit int) ([]FeedItemResult, error) {
	if a.feeds == nil {
		return nil, errors.New("feed reader not configured")
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	items, err := a.feeds.Items(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}

	results := make([]FeedItemResult, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := FeedItemResult{Item: item}
		view, err := a.ProcessURL(ctx, item.URL, language)
		switch {
		case err == nil:
			result.ContentID = view.Content.ID
		case errors.Is(err, ErrDuplicate):
			result.Duplicate = true
		default:
			result.Error = err.Error()
		}
		results = append(results, result)
	}

	a.logger.Info("Feed processed", zap.String("feed", feedURL), zap.Int("items", len(results)))
	return results, nil
}
