// Package store persists the content library: processed sources, their
// generated posts and the scheduled publish entries.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ifuryst/murmur/internal/models"
)

var (
	// ErrNotFound is returned when an ID does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStatusConflict is returned when a transition's expected current status
	// no longer matches, e.g. an entry another tick already published.
	ErrStatusConflict = errors.New("status conflict")
)

// EntryFilter narrows ListEntries. A zero value returns every entry.
type EntryFilter struct {
	Status models.EntryStatus
	PostID string
}

// Store is the only way the rest of the program touches persisted state.
// Implementations must be safe for concurrent use.
type Store interface {
	Load(ctx context.Context) error
	Save(ctx context.Context) error

	AddContent(ctx context.Context, content *models.Content, posts []*models.Post) error
	ListContents(ctx context.Context) ([]models.Content, error)
	GetContent(ctx context.Context, id string) (*models.Content, error)
	// FindContent matches title case-insensitively within one language.
	FindContent(ctx context.Context, title, language string) (*models.Content, error)

	ListPosts(ctx context.Context, contentID string) ([]models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	TransitionPost(ctx context.Context, id string, from, to models.PostStatus, at time.Time) error

	// ScheduleEntry moves the post to scheduled and records entry in one
	// mutation. It fails with ErrStatusConflict when the post is already
	// published or already has a pending entry.
	ScheduleEntry(ctx context.Context, entry *models.ScheduledEntry) error
	ListEntries(ctx context.Context, filter EntryFilter) ([]models.ScheduledEntry, error)
	TransitionEntry(ctx context.Context, id string, from, to models.EntryStatus, errMsg string, at time.Time) error

	// Clear drops everything, including the backing file or rows.
	Clear(ctx context.Context) error
	Close() error
}

// checkSchedulable reports whether post may take a new pending entry, given
// how many it already has.
func checkSchedulable(post *models.Post, pending int) error {
	if post.Status == models.PostPublished {
		return fmt.Errorf("post %s is already published: %w", post.ID, ErrStatusConflict)
	}
	if pending > 0 {
		return fmt.Errorf("post %s already has a pending entry: %w", post.ID, ErrStatusConflict)
	}
	return models.ValidatePostTransition(post.Status, models.PostScheduled)
}
