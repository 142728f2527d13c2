package models

import "fmt"

// PostStatus tracks a post through draft -> scheduled -> published.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostScheduled PostStatus = "scheduled"
	PostPublished PostStatus = "published"
)

// EntryStatus tracks a scheduled entry: pending -> published | failed.
type EntryStatus string

const (
	EntryPending   EntryStatus = "pending"
	EntryPublished EntryStatus = "published"
	EntryFailed    EntryStatus = "failed"
)

// ValidatePostTransition allows only forward moves. Re-scheduling an already
// scheduled post is allowed so a failed entry can be replaced.
func ValidatePostTransition(from, to PostStatus) error {
	validTransitions := map[PostStatus][]PostStatus{
		PostDraft:     {PostScheduled},
		PostScheduled: {PostScheduled, PostPublished},
		PostPublished: {},
	}

	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("unknown post status: %s", from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("invalid post transition from %s to %s", from, to)
}

// ValidateEntryTransition allows pending -> published and pending -> failed.
// Both outcomes are terminal.
func ValidateEntryTransition(from, to EntryStatus) error {
	if from == EntryPending && (to == EntryPublished || to == EntryFailed) {
		return nil
	}
	return fmt.Errorf("invalid entry transition from %s to %s", from, to)
}

// IsTerminal reports whether no further transition is possible.
func (s EntryStatus) IsTerminal() bool {
	return s == EntryPublished || s == EntryFailed
}
