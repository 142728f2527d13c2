package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/config"
	"github.com/ifuryst/murmur/internal/models"
	"github.com/ifuryst/murmur/internal/service"
	"github.com/ifuryst/murmur/internal/service/extractor"
	"github.com/ifuryst/murmur/internal/service/generator"
	"github.com/ifuryst/murmur/internal/service/publisher"
	"github.com/ifuryst/murmur/internal/store"
)

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, url string) (*extractor.Page, error) {
	if url != "https://example.com/go" {
		return nil, &extractor.HTTPError{URL: url, StatusCode: http.StatusNotFound}
	}
	return &extractor.Page{URL: url, Title: "Go Testing", Text: "Table driven tests."}, nil
}

type stubGenerator struct{}

func (stubGenerator) GeneratePosts(ctx context.Context, title, content, language string) ([]generator.GeneratedPost, error) {
	var posts []generator.GeneratedPost
	for _, spec := range models.Platforms {
		posts = append(posts, generator.GeneratedPost{
			Platform: spec.Platform,
			Body:     title + " on " + spec.DisplayName + " #golang",
			Hashtags: []string{"#golang"},
		})
	}
	return posts, nil
}

func (stubGenerator) ExtractKeywords(ctx context.Context, content string) ([]string, error) {
	return []string{"go"}, nil
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []publisher.PublishContent
}

func (p *recordingPublisher) Publish(ctx context.Context, content publisher.PublishContent) (*publisher.PublishResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, content)
	return &publisher.PublishResult{Success: true}, nil
}

func newTestServer(t *testing.T, totpSecret string) (*Server, *recordingPublisher) {
	t.Helper()
	logger := zap.NewNop()

	st := store.NewJSONStore(filepath.Join(t.TempDir(), "library.json"), logger)
	require.NoError(t, st.Load(context.Background()))

	pub := &recordingPublisher{}
	monitoring := service.NewMonitoringService(st, logger)
	disabled := false
	scheduler := service.NewScheduler(&config.SchedulerConfig{Interval: "1m", Enabled: &disabled}, st, pub, monitoring, logger)
	assistant := service.NewAssistant(st, stubExtractor{}, stubGenerator{}, scheduler, monitoring, nil, logger)

	cfg := &config.ServerConfig{Host: "127.0.0.1", Port: 0, Mode: gin.TestMode, TOTPSecret: totpSecret}
	return NewServer(cfg, assistant, scheduler, monitoring, logger), pub
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, "")
	doJSON(t, srv, http.MethodPost, "/api/v1/contents", gin.H{"url": "https://example.com/go"})

	w := doJSON(t, srv, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "murmur_contents_processed_total")
}

func TestProcessAndSchedule(t *testing.T) {
	srv, pub := newTestServer(t, "")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/contents", gin.H{"url": "https://example.com/go", "language": "en"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var view service.ContentView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Go Testing", view.Content.Title)
	require.Len(t, view.Posts, len(models.Platforms))

	w = doJSON(t, srv, http.MethodPost, "/api/v1/contents", gin.H{"url": "https://example.com/go", "language": "en"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/contents/"+view.Content.ID+"/posts", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	past := time.Now().Add(-time.Minute)
	w = doJSON(t, srv, http.MethodPost, "/api/v1/schedules", gin.H{
		"content_id":     view.Content.ID,
		"platform":       "linkedin",
		"scheduled_time": past,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodPost, "/api/v1/scheduler/tick", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result service.TickResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Published)
	require.Len(t, pub.got, 1)
	assert.Equal(t, models.PlatformLinkedIn, pub.got[0].Platform)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.LibraryStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Contents)
	assert.Equal(t, 1, stats.PublishedEntries)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/schedules", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Go Testing")
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"unknown content", http.MethodGet, "/api/v1/contents/missing", nil, http.StatusNotFound},
		{"missing url", http.MethodPost, "/api/v1/contents", gin.H{}, http.StatusBadRequest},
		{"unreachable page", http.MethodPost, "/api/v1/contents", gin.H{"url": "https://example.com/404"}, http.StatusUnprocessableEntity},
		{"bad hour", http.MethodPost, "/api/v1/schedules", gin.H{"post_id": "p", "hour": 25, "minute": 0}, http.StatusBadRequest},
		{"no time", http.MethodPost, "/api/v1/schedules", gin.H{"post_id": "p"}, http.StatusBadRequest},
		{"no target", http.MethodPost, "/api/v1/schedules", gin.H{"hour": 9, "minute": 30}, http.StatusBadRequest},
		{"unknown post", http.MethodPost, "/api/v1/schedules", gin.H{"post_id": "missing", "hour": 9, "minute": 30}, http.StatusNotFound},
		{"unknown platform", http.MethodPost, "/api/v1/schedules", gin.H{"content_id": "c", "platform": "myspace", "hour": 9, "minute": 30}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestAuthRequired(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"
	srv, _ := newTestServer(t, secret)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/contents", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", gin.H{"code": "000000x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	w = doJSON(t, srv, http.MethodPost, "/api/v1/auth/login", gin.H{"code": code})
	require.Equal(t, http.StatusOK, w.Code)

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == service.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, strings.TrimSpace(session.Value) != "")

	w = doJSON(t, srv, http.MethodGet, "/api/v1/contents", nil, session)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestShutdownBeforeStart(t *testing.T) {
	srv, _ := newTestServer(t, "")
	assert.NoError(t, srv.Shutdown(context.Background()))
}
