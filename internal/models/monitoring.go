package models

import (
	"time"
)

// ErrorLog is a structured error event recorded by the monitoring service.
type ErrorLog struct {
	Level        string    `json:"level"`  // ERROR, WARN, INFO
	Source       string    `json:"source"` // extractor, generator, publisher, scheduler
	PlatformName string    `json:"platform_name,omitempty"`
	PostID       string    `json:"post_id,omitempty"`
	EntryID      string    `json:"entry_id,omitempty"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Context      string    `json:"context,omitempty"` // JSON
	CreatedAt    time.Time `json:"created_at"`
}

// LibraryStats counts the library by status.
type LibraryStats struct {
	Contents         int `json:"contents"`
	DraftPosts       int `json:"draft_posts"`
	ScheduledPosts   int `json:"scheduled_posts"`
	PublishedPosts   int `json:"published_posts"`
	PendingEntries   int `json:"pending_entries"`
	PublishedEntries int `json:"published_entries"`
	FailedEntries    int `json:"failed_entries"`
}

// CountLibrary tallies posts and entries by status.
func CountLibrary(contents []Content, posts []Post, entries []ScheduledEntry) LibraryStats {
	stats := LibraryStats{Contents: len(contents)}
	for _, p := range posts {
		switch p.Status {
		case PostDraft:
			stats.DraftPosts++
		case PostScheduled:
			stats.ScheduledPosts++
		case PostPublished:
			stats.PublishedPosts++
		}
	}
	for _, e := range entries {
		switch e.Status {
		case EntryPending:
			stats.PendingEntries++
		case EntryPublished:
			stats.PublishedEntries++
		case EntryFailed:
			stats.FailedEntries++
		}
	}
	return stats
}
