package publisher

import (
	"context"
	"time"

	"github.com/ifuryst/murmur/internal/models"
)

// PublishContent is the post as handed to a sink.
type PublishContent struct {
	PostID        string          `json:"post_id"`
	ContentID     string          `json:"content_id"`
	EntryID       string          `json:"entry_id,omitempty"`
	Platform      models.Platform `json:"platform"`
	Language      string          `json:"language"`
	Title         string          `json:"title"`
	SourceURL     string          `json:"source_url"`
	Body          string          `json:"body"`
	Hashtags      []string        `json:"hashtags"`
	ScheduledTime *time.Time      `json:"scheduled_time,omitempty"`
}

// PublishResult represents the result of a publish operation
type PublishResult struct {
	Success     bool              `json:"success"`
	PublishID   string            `json:"publish_id,omitempty"`
	URL         string            `json:"url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	PublishedAt time.Time         `json:"published_at"`
}

// Publisher delivers a post somewhere. Publish returns an error when the post
// did not go out; the scheduler marks the entry failed in that case.
type Publisher interface {
	GetPlatformName() string
	Publish(ctx context.Context, content PublishContent) (*PublishResult, error)
}

// FromPost builds the publish payload for post. content may be nil when the
// source record is missing.
func FromPost(post *models.Post, content *models.Content) *PublishContent {
	pc := &PublishContent{
		PostID:    post.ID,
		ContentID: post.ContentID,
		Platform:  post.Platform,
		Language:  post.Language,
		Body:      post.Body,
		Hashtags:  []string(post.Hashtags),
	}
	if content != nil {
		pc.Title = content.Title
		pc.SourceURL = content.URL
	}
	return pc
}
