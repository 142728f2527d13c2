package generator

import (
	"fmt"

	"github.com/ifuryst/murmur/internal/models"
)

const keywordSystemPrompt = "You are a keyword extraction specialist."

func postSystemPrompt(languageName string) string {
	return fmt.Sprintf("You are a professional social media manager who creates content in %s.", languageName)
}

func postUserPrompt(spec models.PlatformSpec, languageName, title, content string) string {
	return fmt.Sprintf(`Create a %[1]s post in %[2]s for the following content:
Title: %[3]s
Content: %[4]s

Requirements:
- Write the post in %[2]s
- Maximum length: %[5]d characters
- Maximum %[6]d relevant hashtags in %[2]s
- Include a call to action in %[2]s
- Make it engaging for %[1]s's %[2]s-speaking audience
- Keep hashtags in English for better reach, but the post in %[2]s`,
		spec.DisplayName, languageName, title, content, spec.MaxLength, spec.HashtagLimit)
}

func keywordUserPrompt(content string) string {
	return fmt.Sprintf(`Extract 5-7 relevant keywords from this content:
%s

Return only the keywords as a comma-separated list.`, content)
}
