package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/config"
	"github.com/ifuryst/murmur/internal/models"
	"github.com/ifuryst/murmur/internal/service/extractor"
)

func TestProcessURL(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	view, err := env.assistant.ProcessURL(ctx, "https://example.com/go", "pt-BR")
	require.NoError(t, err)

	assert.Equal(t, "Go Testing", view.Content.Title)
	assert.Equal(t, "pt", view.Content.Language)
	assert.Equal(t, "Table driven tests keep cases readable....", view.Content.Summary)
	assert.Equal(t, models.StringArray{"go", "testing"}, view.Content.Keywords)
	assert.True(t, view.Content.CreatedAt.Equal(baseTime))

	require.Len(t, view.Posts, 3)
	for i, spec := range models.Platforms {
		p := view.Posts[i]
		assert.Equal(t, spec.Platform, p.Platform)
		assert.Equal(t, view.Content.ID, p.ContentID)
		assert.Equal(t, models.PostDraft, p.Status)
		assert.Equal(t, "pt", p.Language)
		assert.Equal(t, models.StringArray{"#go"}, p.Hashtags)
		assert.Equal(t, models.StringArray{"go", "testing"}, p.Keywords)
	}

	_, err = os.Stat(env.path)
	assert.NoError(t, err, "library written after processing")
}

func TestProcessURLUnsupportedLanguageFallsBack(t *testing.T) {
	env := newTestEnv(t)
	view, err := env.assistant.ProcessURL(context.Background(), "https://example.com/go", "ja")
	require.NoError(t, err)
	assert.Equal(t, "en", view.Content.Language)
}

func TestProcessURLDuplicate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.processed(t)

	_, err := env.assistant.ProcessURL(ctx, "https://example.com/go", "en")
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, env.generator.calls, "duplicate must not reach the model")

	// same title in another language is new content
	_, err = env.assistant.ProcessURL(ctx, "https://example.com/go", "fr")
	assert.NoError(t, err)
}

func TestProcessURLFailuresPersistNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.assistant.ProcessURL(ctx, "https://example.com/missing", "en")
	var httpErr *extractor.HTTPError
	assert.ErrorAs(t, err, &httpErr)

	env.generator.err = errors.New("quota exceeded")
	_, err = env.assistant.ProcessURL(ctx, "https://example.com/go", "en")
	assert.Error(t, err)

	library, err := env.assistant.Library(ctx)
	require.NoError(t, err)
	assert.Empty(t, library)
}

func TestProcessURLKeywordFailureKeepsContent(t *testing.T) {
	env := newTestEnv(t)
	env.generator.keywordsErr = errors.New("timeout")

	view, err := env.assistant.ProcessURL(context.Background(), "https://example.com/go", "en")
	require.NoError(t, err)
	assert.Empty(t, view.Content.Keywords)
}

func TestSchedulePost(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	view := env.processed(t)

	entry, err := env.assistant.SchedulePost(ctx, view.Content.ID, models.PlatformLinkedIn, baseTime.Add(time.Hour))
	require.NoError(t, err)

	linkedin, ok := view.Post(models.PlatformLinkedIn)
	require.True(t, ok)
	assert.Equal(t, linkedin.ID, entry.PostID)

	_, err = env.assistant.SchedulePost(ctx, view.Content.ID, models.Platform("mastodon"), baseTime)
	assert.ErrorIs(t, err, ErrNoPostForPlatform)

	_, err = env.assistant.SchedulePost(ctx, "missing", models.PlatformX, baseTime)
	assert.Error(t, err)
}

func TestNextOccurrence(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 30, 15, 0, time.UTC)

	tests := []struct {
		name         string
		hour, minute int
		want         time.Time
		wantErr      bool
	}{
		{name: "later today", hour: 18, minute: 0, want: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)},
		{name: "already past", hour: 9, minute: 15, want: time.Date(2025, 6, 2, 9, 15, 0, 0, time.UTC)},
		{name: "current minute rolls over", hour: 14, minute: 30, want: time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)},
		{name: "bad hour", hour: 24, minute: 0, wantErr: true},
		{name: "bad minute", hour: 1, minute: 60, wantErr: true},
		{name: "negative", hour: -1, minute: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOccurrence(tt.hour, tt.minute, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTime)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestLibraryAndScheduledView(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	goView := env.processed(t)
	rustView, err := env.assistant.ProcessURL(ctx, "https://example.com/rust", "en")
	require.NoError(t, err)

	_, err = env.assistant.SchedulePost(ctx, goView.Content.ID, models.PlatformX, baseTime.Add(-time.Minute))
	require.NoError(t, err)
	_, err = env.assistant.SchedulePost(ctx, rustView.Content.ID, models.PlatformFacebook, baseTime.Add(time.Hour))
	require.NoError(t, err)
	_, err = env.assistant.Tick(ctx)
	require.NoError(t, err)

	library, err := env.assistant.Library(ctx)
	require.NoError(t, err)
	require.Len(t, library, 2)
	assert.Equal(t, "Go Testing", library[0].Content.Title)
	assert.True(t, library[0].Posted)
	assert.Len(t, library[0].Posts, 3)
	assert.Len(t, library[0].Entries, 1)
	assert.False(t, library[1].Posted)

	items, err := env.assistant.ScheduledView(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Go Testing", items[0].ContentTitle)
	assert.Equal(t, models.PlatformX, items[0].Platform)
	assert.Equal(t, models.EntryPublished, items[0].Entry.Status)
	assert.Equal(t, "Rust Ownership", items[1].ContentTitle)
	assert.Equal(t, models.PlatformFacebook, items[1].Platform)
	assert.Equal(t, models.EntryPending, items[1].Entry.Status)

	one, err := env.assistant.GetContent(ctx, rustView.Content.ID)
	require.NoError(t, err)
	assert.Len(t, one.Entries, 1)

	stats, err := env.assistant.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Contents)
	assert.Equal(t, 1, stats.PublishedPosts)
	assert.Equal(t, 1, stats.ScheduledPosts)
	assert.Equal(t, 4, stats.DraftPosts)
	assert.Equal(t, 1, stats.PendingEntries)
	assert.Equal(t, 1, stats.PublishedEntries)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.processed(t)

	require.NoError(t, env.assistant.DeleteAndClear(ctx))
	_, err := os.Stat(env.path)
	assert.True(t, os.IsNotExist(err))

	library, err := env.assistant.Library(ctx)
	require.NoError(t, err)
	assert.Empty(t, library)

	require.NoError(t, env.assistant.Save(ctx))
	_, err = os.Stat(env.path)
	assert.NoError(t, err)
}

const feedXML = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Blog</title>
<item><title>Old</title><link>https://example.com/rust</link><pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate></item>
<item><title>New</title><link>https://example.com/go</link><pubDate>Tue, 03 Jan 2006 15:04:05 GMT</pubDate></item>
<item><title>Broken</title><guid>https://example.com/missing</guid></item>
</channel></rss>`

func TestProcessFeed(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	env := newTestEnv(t)
	env.assistant.feeds = NewFeedReader(&config.ExtractorConfig{Timeout: "5s", UserAgent: "murmur-test"}, zap.NewNop())
	env.processed(t)

	results, err := env.assistant.ProcessFeed(ctx, srv.URL, "en", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "https://example.com/go", results[0].Item.URL)
	assert.True(t, results[0].Duplicate)

	assert.Equal(t, "https://example.com/rust", results[1].Item.URL)
	assert.NotEmpty(t, results[1].ContentID)

	assert.Equal(t, "https://example.com/missing", results[2].Item.URL)
	assert.NotEmpty(t, results[2].Error)

	limited, err := env.assistant.ProcessFeed(ctx, srv.URL, "en", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
