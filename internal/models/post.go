package models

import (
	"regexp"
	"strings"
	"time"
)

// Post is one generated social post for a single platform.
type Post struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	ContentID   string      `gorm:"size:36;not null;index" json:"content_id"`
	Platform    Platform    `gorm:"size:32;not null" json:"platform"`
	Language    string      `gorm:"size:8;not null" json:"language"`
	Body        string      `gorm:"type:text" json:"body"`
	Hashtags    StringArray `gorm:"type:text[]" json:"hashtags"`
	Keywords    StringArray `gorm:"type:text[]" json:"keywords"`
	Status      PostStatus  `gorm:"size:20;default:'draft';index" json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
}

var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// ParseHashtags returns the distinct hashtags in body, in order of appearance.
func ParseHashtags(body string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, tag := range hashtagPattern.FindAllString(body, -1) {
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	return tags
}
