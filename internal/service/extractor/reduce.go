package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nonContentSelectors lists elements to strip before extracting text.
const nonContentSelectors = "script, style, nav, header, footer"

// extractPageTitle prefers <title>, then og:title.
func extractPageTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if ogTitle, exists := doc.Find("meta[property='og:title']").Attr("content"); exists {
		return strings.TrimSpace(ogTitle)
	}
	return ""
}

// extractParagraphs joins the <p> text of the first article, else main, else
// body. The selection used is returned so it can be rendered as markdown.
func extractParagraphs(doc *goquery.Document) (string, *goquery.Selection) {
	for _, selector := range []string{"article", "main", "body"} {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		container.Find(nonContentSelectors).Remove()

		var paragraphs []string
		container.Find("p").Each(func(_ int, p *goquery.Selection) {
			if text := normalizeSpace(p.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			return strings.Join(paragraphs, " "), container
		}
	}
	return "", nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
