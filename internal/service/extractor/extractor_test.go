package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/config"
)

const paragraph = "Goroutines are cheap to start and channels let them hand work to each other without sharing memory. "

func articlePage() string {
	return `<html><head><title>Go Concurrency Patterns</title></head><body>
<nav><p>Home About Contact</p></nav>
<article>
<h1>Go Concurrency Patterns</h1>
<p>` + strings.Repeat(paragraph, 4) + `</p>
<p>` + strings.Repeat("A pipeline is a series of stages connected by channels. ", 4) + `</p>
<p>` + strings.Repeat("Fan out work to several goroutines and fan the results back in. ", 4) + `</p>
</article>
<footer><p>Copyright</p></footer>
</body></html>`
}

func newTestService(t *testing.T, markdown bool) *Service {
	t.Helper()
	s, err := NewService(&config.ExtractorConfig{
		Timeout:   "5s",
		UserAgent: "murmur-test",
		Markdown:  markdown,
	}, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestExtractArticle(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.UserAgent()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage()))
	}))
	defer srv.Close()

	page, err := newTestService(t, false).Extract(context.Background(), srv.URL+"/post")
	require.NoError(t, err)

	assert.Equal(t, "murmur-test", userAgent)
	assert.Equal(t, "Go Concurrency Patterns", page.Title)
	assert.Contains(t, page.Text, "Goroutines are cheap to start")
	assert.Contains(t, page.Text, "fan the results back in")
	assert.Empty(t, page.Markdown)
	assert.Equal(t, page.Text, page.Body())
}

func TestExtractMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage()))
	}))
	defer srv.Close()

	page, err := newTestService(t, true).Extract(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.NotEmpty(t, page.Markdown)
	assert.Contains(t, page.Markdown, "pipeline is a series of stages")
	assert.Equal(t, page.Markdown, page.Body())
}

func TestExtractHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestService(t, false).Extract(context.Background(), srv.URL)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestExtractEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Empty</title></head><body></body></html>`))
	}))
	defer srv.Close()

	_, err := newTestService(t, false).Extract(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestExtractInvalidURL(t *testing.T) {
	_, err := newTestService(t, false).Extract(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestNewServiceInvalidTimeout(t *testing.T) {
	_, err := NewService(&config.ExtractorConfig{Timeout: "soon"}, zap.NewNop())
	assert.Error(t, err)
}

func TestExtractParagraphsFallbackOrder(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "article wins",
			html: `<body><main><p>main text</p></main><article><p>first</p><p>second</p></article></body>`,
			want: "first second",
		},
		{
			name: "main when no article",
			html: `<body><p>outside</p><main><p>main  text</p></main></body>`,
			want: "main text",
		},
		{
			name: "body strips chrome",
			html: `<body><header><p>menu</p></header><p>only body</p><footer><p>legal</p></footer></body>`,
			want: "only body",
		},
		{
			name: "nothing",
			html: `<body><div>no paragraphs</div></body>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			require.NoError(t, err)

			got, _ := extractParagraphs(doc)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPageTitle(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><head><meta property="og:title" content=" OG Title "></head><body></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "OG Title", extractPageTitle(doc))
}
