package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StringArray represents a PostgreSQL text[] type
type StringArray []string

// Scan implements the sql.Scanner interface
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		// PostgreSQL array format: {value1,value2,value3}
		trimmed := strings.Trim(v, "{}")
		if trimmed == "" {
			*s = StringArray{}
			return nil
		}

		parts := strings.Split(trimmed, ",")
		result := make([]string, len(parts))
		for i, part := range parts {
			part = strings.Trim(strings.TrimSpace(part), "\"")
			result[i] = strings.ReplaceAll(part, `\"`, `"`)
		}
		*s = result
		return nil
	case []byte:
		var arr []string
		if err := json.Unmarshal(v, &arr); err == nil {
			*s = arr
			return nil
		}
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}

	quoted := make([]string, len(s))
	for i, v := range s {
		escaped := strings.ReplaceAll(v, "\"", "\\\"")
		quoted[i] = fmt.Sprintf("\"%s\"", escaped)
	}

	return fmt.Sprintf("{%s}", strings.Join(quoted, ",")), nil
}

// Content is a processed source page. Its posts reference it by ID.
type Content struct {
	ID        string      `gorm:"primaryKey;size:36" json:"id"`
	URL       string      `gorm:"not null;size:2048" json:"url"`
	Title     string      `gorm:"not null;size:500;index" json:"title"`
	Summary   string      `gorm:"type:text" json:"summary"`
	Language  string      `gorm:"size:8;not null;index" json:"language"`
	Keywords  StringArray `gorm:"type:text[]" json:"keywords"`
	CreatedAt time.Time   `json:"created_at"`
}

// SummaryLength is the number of characters of extracted text kept as summary.
const SummaryLength = 200

// Summarize keeps the first SummaryLength runes of text followed by "...".
func Summarize(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > SummaryLength {
		runes = runes[:SummaryLength]
	}
	return string(runes) + "..."
}
