package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/config"
	"github.com/ifuryst/murmur/internal/models"
	"github.com/ifuryst/murmur/internal/service/extractor"
	"github.com/ifuryst/murmur/internal/service/generator"
	"github.com/ifuryst/murmur/internal/service/publisher"
	"github.com/ifuryst/murmur/internal/store"
)

var baseTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type fakePublisher struct {
	mu  sync.Mutex
	err error
	got []publisher.PublishContent
}

func (p *fakePublisher) Publish(ctx context.Context, content publisher.PublishContent) (*publisher.PublishResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, content)
	if p.err != nil {
		return nil, p.err
	}
	return &publisher.PublishResult{Success: true, PublishID: content.PostID}, nil
}

func (p *fakePublisher) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

type fakeExtractor struct {
	pages map[string]*extractor.Page
}

func (e *fakeExtractor) Extract(ctx context.Context, url string) (*extractor.Page, error) {
	page, ok := e.pages[url]
	if !ok {
		return nil, &extractor.HTTPError{URL: url, StatusCode: 404}
	}
	return page, nil
}

type fakeGenerator struct {
	err         error
	keywordsErr error
	calls       int
}

func (g *fakeGenerator) GeneratePosts(ctx context.Context, title, content, language string) ([]generator.GeneratedPost, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	var posts []generator.GeneratedPost
	for _, spec := range models.Platforms {
		body := spec.DisplayName + " post about " + title + " in " + language + " #go"
		posts = append(posts, generator.GeneratedPost{
			Platform: spec.Platform,
			Body:     body,
			Hashtags: models.ParseHashtags(body),
		})
	}
	return posts, nil
}

func (g *fakeGenerator) ExtractKeywords(ctx context.Context, content string) ([]string, error) {
	if g.keywordsErr != nil {
		return nil, g.keywordsErr
	}
	return []string{"go", "testing"}, nil
}

var errPublish = errors.New("platform unavailable")

type testEnv struct {
	store      *store.JSONStore
	path       string
	publisher  *fakePublisher
	monitoring *MonitoringService
	scheduler  *Scheduler
	assistant  *Assistant
	generator  *fakeGenerator
	clock      *testClock
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	path := filepath.Join(t.TempDir(), "content_library.json")
	st := store.NewJSONStore(path, logger)
	require.NoError(t, st.Load(context.Background()))

	clock := &testClock{now: baseTime}
	pub := &fakePublisher{}
	monitoring := NewMonitoringService(st, logger)
	enabled := true
	scheduler := NewScheduler(&config.SchedulerConfig{Interval: "1m", Enabled: &enabled}, st, pub, monitoring, logger, WithClock(clock.Now))

	ext := &fakeExtractor{pages: map[string]*extractor.Page{
		"https://example.com/go": {
			URL:   "https://example.com/go",
			Title: "Go Testing",
			Text:  "Table driven tests keep cases readable.",
		},
		"https://example.com/rust": {
			URL:   "https://example.com/rust",
			Title: "Rust Ownership",
			Text:  "Borrowing rules.",
		},
	}}
	gen := &fakeGenerator{}
	assistant := NewAssistant(st, ext, gen, scheduler, monitoring, nil, logger)
	assistant.now = clock.Now

	return &testEnv{
		store:      st,
		path:       path,
		publisher:  pub,
		monitoring: monitoring,
		scheduler:  scheduler,
		assistant:  assistant,
		generator:  gen,
		clock:      clock,
	}
}

// processed stores one content and returns it.
func (env *testEnv) processed(t *testing.T) *ContentView {
	t.Helper()
	view, err := env.assistant.ProcessURL(context.Background(), "https://example.com/go", "en")
	require.NoError(t, err)
	return view
}
