// Package extractor fetches a web page and reduces it to its title and
// readable text.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/config"
)

// ErrNoContent is returned when a page has no extractable text.
var ErrNoContent = errors.New("no extractable content")

// Page is the reduced form of a fetched document.
type Page struct {
	URL      string
	Title    string
	Text     string
	Excerpt  string
	Byline   string
	Markdown string
}

// Body returns the text handed to the generator: markdown when it was
// rendered, plain text otherwise.
func (p *Page) Body() string {
	if p.Markdown != "" {
		return p.Markdown
	}
	return p.Text
}

type Service struct {
	config    *config.ExtractorConfig
	logger    *zap.Logger
	client    *http.Client
	converter *md.Converter
}

func NewService(cfg *config.ExtractorConfig, logger *zap.Logger) (*Service, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid extractor timeout %q: %w", cfg.Timeout, err)
	}

	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		IdleConnTimeout:       120 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		TLSHandshakeTimeout:   20 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
	}

	s := &Service{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Transport: tr,
			Timeout:   timeout,
		},
	}
	if cfg.Markdown {
		s.converter = md.NewConverter("", true, nil)
	}
	return s, nil
}

// Extract downloads rawURL and reduces it. Readability runs first; when it
// finds nothing the page falls back to the paragraphs of article, main or body.
func (s *Service) Extract(ctx context.Context, rawURL string) (*Page, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Scheme == "" || pageURL.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}

	body, err := s.fetch(ctx, pageURL.String())
	if err != nil {
		return nil, err
	}

	page := &Page{URL: pageURL.String()}
	html := ""

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		s.logger.Debug("Readability failed, using fallback", zap.String("url", rawURL), zap.Error(err))
	} else {
		page.Title = strings.TrimSpace(article.Title)
		page.Text = normalizeSpace(article.TextContent)
		page.Excerpt = strings.TrimSpace(article.Excerpt)
		page.Byline = strings.TrimSpace(article.Byline)
		html = article.Content
	}

	if page.Text == "" || page.Title == "" {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
		if page.Title == "" {
			page.Title = extractPageTitle(doc)
		}
		if page.Text == "" {
			var sel *goquery.Selection
			page.Text, sel = extractParagraphs(doc)
			if sel != nil {
				html, _ = sel.Html()
			}
		}
	}

	if page.Text == "" {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNoContent)
	}
	if page.Title == "" {
		page.Title = pageURL.Host
	}

	if s.converter != nil && html != "" {
		markdown, err := s.converter.ConvertString(html)
		if err != nil {
			s.logger.Warn("Failed to convert page to markdown", zap.String("url", rawURL), zap.Error(err))
		} else {
			page.Markdown = strings.TrimSpace(markdown)
		}
	}

	s.logger.Info("Extracted page",
		zap.String("url", page.URL),
		zap.String("title", page.Title),
		zap.Int("text_length", len(page.Text)),
		zap.Bool("markdown", page.Markdown != ""))
	return page, nil
}
