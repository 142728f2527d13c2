package models

import (
	"time"
)

// ScheduledEntry asks the scheduler to publish a post at ScheduledTime.
type ScheduledEntry struct {
	ID            string      `gorm:"primaryKey;size:36" json:"id"`
	PostID        string      `gorm:"size:36;not null;index" json:"post_id"`
	ScheduledTime time.Time   `gorm:"not null;index" json:"scheduled_time"`
	Status        EntryStatus `gorm:"size:20;default:'pending';index" json:"status"`
	Error         string      `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Due reports whether the entry should be published at now.
func (e *ScheduledEntry) Due(now time.Time) bool {
	return e.Status == EntryPending && !e.ScheduledTime.After(now)
}
