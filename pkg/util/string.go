package util

import (
	"strings"
	"unicode/utf8"
)

// ParseTags parses a comma-separated model reply or tag string into a list.
func ParseTags(tagStr string) []string {
	tagStr = strings.TrimSpace(tagStr)
	if tagStr == "" {
		return []string{}
	}

	// Remove brackets if present
	tagStr = strings.Trim(tagStr, "[]")

	tags := strings.FieldsFunc(tagStr, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	cleanTags := []string{}

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		tag = strings.Trim(tag, "\"'.") // Remove quotes and a trailing period
		tag = strings.TrimSpace(tag)
		if tag != "" {
			cleanTags = append(cleanTags, tag)
		}
	}

	return cleanTags
}

// Truncate cuts s to at most n runes, appending suffix when it was cut.
func Truncate(s string, n int, suffix string) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + suffix
}
