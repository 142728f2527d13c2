package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/models"
	"github.com/ifuryst/murmur/internal/service/extractor"
	"github.com/ifuryst/murmur/internal/service/generator"
	"github.com/ifuryst/murmur/internal/store"
)

// PageExtractor reduces a URL to title and text.
type PageExtractor interface {
	Extract(ctx context.Context, url string) (*extractor.Page, error)
}

// PostGenerator writes posts and keywords for extracted text.
type PostGenerator interface {
	GeneratePosts(ctx context.Context, title, content, language string) ([]generator.GeneratedPost, error)
	ExtractKeywords(ctx context.Context, content string) ([]string, error)
}

// ContentView is a library item with its posts and schedule.
type ContentView struct {
	Content models.Content          `json:"content"`
	Posts   []models.Post           `json:"posts"`
	Entries []models.ScheduledEntry `json:"entries"`
	// Posted is true once the content has entries and all of them are published.
	Posted bool `json:"posted"`
}

// Post returns the content's post for platform.
func (v *ContentView) Post(platform models.Platform) (*models.Post, bool) {
	for i := range v.Posts {
		if v.Posts[i].Platform == platform {
			return &v.Posts[i], true
		}
	}
	return nil, false
}

// ScheduledItem is one entry joined with its post and source title.
type ScheduledItem struct {
	ContentID    string                `json:"content_id"`
	ContentTitle string                `json:"content_title"`
	Platform     models.Platform       `json:"platform"`
	Entry        models.ScheduledEntry `json:"entry"`
}

// Assistant ties extraction, generation, storage and scheduling together.
type Assistant struct {
	store      store.Store
	extractor  PageExtractor
	generator  PostGenerator
	scheduler  *Scheduler
	monitoring *MonitoringService
	feeds      *FeedReader
	logger     *zap.Logger
	now        func() time.Time
}

func NewAssistant(st store.Store, ext PageExtractor, gen PostGenerator, scheduler *Scheduler, monitoring *MonitoringService, feeds *FeedReader, logger *zap.Logger) *Assistant {
	return &Assistant{
		store:      st,
		extractor:  ext,
		generator:  gen,
		scheduler:  scheduler,
		monitoring: monitoring,
		feeds:      feeds,
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessURL extracts url, generates one post per platform in language and
// stores the result. Nothing is stored when any step fails.
func (a *Assistant) ProcessURL(ctx context.Context, url, language string) (*ContentView, error) {
	lang, ok := models.NormalizeLanguage(language)
	if !ok {
		a.logger.Warn("Unsupported language, using English", zap.String("language", language))
	}

	view, err := a.processURL(ctx, url, lang)
	if a.monitoring != nil {
		switch {
		case err == nil:
			a.monitoring.RecordProcessed("processed")
		case errors.Is(err, ErrDuplicate):
			a.monitoring.RecordProcessed("duplicate")
		default:
			a.monitoring.RecordProcessed("failed")
			a.monitoring.RecordError("ERROR", "assistant", "Failed to process URL", err.Error(),
				WithContext(map[string]interface{}{"url": url, "language": lang}))
		}
	}
	return view, err
}

func (a *Assistant) processURL(ctx context.Context, url, lang string) (*ContentView, error) {
	page, err := a.extractor.Extract(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	if existing, err := a.store.FindContent(ctx, page.Title, lang); err == nil {
		return nil, fmt.Errorf("%q in %s (%s): %w", existing.Title, models.LanguageName(lang), existing.ID, ErrDuplicate)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	body := page.Body()
	generated, err := a.generator.GeneratePosts(ctx, page.Title, body, lang)
	if err != nil {
		return nil, err
	}

	keywords, err := a.generator.ExtractKeywords(ctx, body)
	if err != nil {
		a.logger.Warn("Keyword extraction failed, storing without keywords", zap.String("url", url), zap.Error(err))
		keywords = []string{}
	}

	now := a.now()
	content := &models.Content{
		ID:        uuid.NewString(),
		URL:       page.URL,
		Title:     page.Title,
		Summary:   models.Summarize(page.Text),
		Language:  lang,
		Keywords:  models.StringArray(keywords),
		CreatedAt: now,
	}

	posts := make([]*models.Post, 0, len(generated))
	for _, g := range generated {
		posts = append(posts, &models.Post{
			ID:        uuid.NewString(),
			ContentID: content.ID,
			Platform:  g.Platform,
			Language:  lang,
			Body:      g.Body,
			Hashtags:  models.StringArray(g.Hashtags),
			Keywords:  models.StringArray(keywords),
			Status:    models.PostDraft,
			CreatedAt: now,
		})
	}

	if err := a.store.AddContent(ctx, content, posts); err != nil {
		return nil, fmt.Errorf("failed to store content: %w", err)
	}

	a.logger.Info("Content processed",
		zap.String("content_id", content.ID),
		zap.String("title", content.Title),
		zap.String("language", lang),
		zap.Int("posts", len(posts)))

	view := &ContentView{Content: *content}
	for _, p := range posts {
		view.Posts = append(view.Posts, *p)
	}
	return view, nil
}

// SchedulePost schedules the content's post for platform at when.
func (a *Assistant) SchedulePost(ctx context.Context, contentID string, platform models.Platform, when time.Time) (*models.ScheduledEntry, error) {
	if _, err := a.store.GetContent(ctx, contentID); err != nil {
		return nil, err
	}
	posts, err := a.store.ListPosts(ctx, contentID)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		if p.Platform == platform {
			return a.scheduler.Schedule(ctx, p.ID, when)
		}
	}
	return nil, fmt.Errorf("%s: %w", platform.DisplayName(), ErrNoPostForPlatform)
}

// SchedulePostID schedules a post by its own ID.
func (a *Assistant) SchedulePostID(ctx context.Context, postID string, when time.Time) (*models.ScheduledEntry, error) {
	return a.scheduler.Schedule(ctx, postID, when)
}

// NextOccurrence returns today at hour:minute in now's location, or the same
// time tomorrow when that moment has already passed.
func NextOccurrence(hour, minute int, now time.Time) (time.Time, error) {
	if hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("hour must be between 0 and 23: %w", ErrInvalidTime)
	}
	if minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("minute must be between 0 and 59: %w", ErrInvalidTime)
	}

	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if t.Before(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

// NextOccurrence resolves hour:minute against the assistant's clock.
func (a *Assistant) NextOccurrence(hour, minute int) (time.Time, error) {
	return NextOccurrence(hour, minute, a.now())
}

// Library returns every content in insertion order with posts and entries.
func (a *Assistant) Library(ctx context.Context) ([]ContentView, error) {
	contents, err := a.store.ListContents(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := a.store.ListPosts(ctx, "")
	if err != nil {
		return nil, err
	}
	entries, err := a.store.ListEntries(ctx, store.EntryFilter{})
	if err != nil {
		return nil, err
	}

	postContent := make(map[string]string, len(posts))
	byContent := make(map[string]*ContentView, len(contents))
	views := make([]ContentView, len(contents))
	for i, c := range contents {
		views[i] = ContentView{Content: c}
		byContent[c.ID] = &views[i]
	}
	for _, p := range posts {
		postContent[p.ID] = p.ContentID
		if v, ok := byContent[p.ContentID]; ok {
			v.Posts = append(v.Posts, p)
		}
	}
	for _, e := range entries {
		if v, ok := byContent[postContent[e.PostID]]; ok {
			v.Entries = append(v.Entries, e)
		}
	}
	for i := range views {
		views[i].Posted = posted(views[i].Entries)
	}
	return views, nil
}

func posted(entries []models.ScheduledEntry) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if e.Status != models.EntryPublished {
			return false
		}
	}
	return true
}

// GetContent returns one library item.
func (a *Assistant) GetContent(ctx context.Context, contentID string) (*ContentView, error) {
	content, err := a.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	posts, err := a.store.ListPosts(ctx, contentID)
	if err != nil {
		return nil, err
	}
	view := &ContentView{Content: *content, Posts: posts}
	for _, p := range posts {
		entries, err := a.store.ListEntries(ctx, store.EntryFilter{PostID: p.ID})
		if err != nil {
			return nil, err
		}
		view.Entries = append(view.Entries, entries...)
	}
	view.Posted = posted(view.Entries)
	return view, nil
}

// ScheduledView lists every entry grouped by content in library order, each
// group sorted by scheduled time.
func (a *Assistant) ScheduledView(ctx context.Context) ([]ScheduledItem, error) {
	views, err := a.Library(ctx)
	if err != nil {
		return nil, err
	}

	var items []ScheduledItem
	for _, v := range views {
		platforms := make(map[string]models.Platform, len(v.Posts))
		for _, p := range v.Posts {
			platforms[p.ID] = p.Platform
		}
		for _, e := range v.Entries {
			items = append(items, ScheduledItem{
				ContentID:    v.Content.ID,
				ContentTitle: v.Content.Title,
				Platform:     platforms[e.PostID],
				Entry:        e,
			})
		}
	}
	return items, nil
}

// Tick runs one scheduler pass on demand.
func (a *Assistant) Tick(ctx context.Context) (*TickResult, error) {
	return a.scheduler.Tick(ctx)
}

// Stats counts the library by status.
func (a *Assistant) Stats(ctx context.Context) (*models.LibraryStats, error) {
	return a.monitoring.LibraryStats(ctx)
}

func (a *Assistant) Save(ctx context.Context) error {
	return a.store.Save(ctx)
}

// DeleteAndClear removes the persisted library and empties memory.
func (a *Assistant) DeleteAndClear(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	a.logger.Info("Content library cleared")
	return nil
}
