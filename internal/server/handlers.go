package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/models"
	"github.com/ifuryst/murmur/internal/service"
	"github.com/ifuryst/murmur/internal/service/extractor"
	"github.com/ifuryst/murmur/internal/store"
)

type loginRequest struct {
	Code string `json:"code" binding:"required"`
}

type processRequest struct {
	URL      string `json:"url" binding:"required"`
	Language string `json:"language"`
}

type feedRequest struct {
	URL      string `json:"url" binding:"required"`
	Language string `json:"language"`
	Limit    int    `json:"limit"`
}

// scheduleRequest names a post either by post_id or by content_id and
// platform, and a time either as scheduled_time or as hour and minute.
type scheduleRequest struct {
	PostID        string     `json:"post_id"`
	ContentID     string     `json:"content_id"`
	Platform      string     `json:"platform"`
	ScheduledTime *time.Time `json:"scheduled_time"`
	Hour          *int       `json:"hour"`
	Minute        *int       `json:"minute"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	if !s.Auth.Enabled() {
		c.JSON(http.StatusOK, gin.H{"message": "Authentication disabled"})
		return
	}

	session, ok := s.Auth.Login(req.Code)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid code"})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(service.SessionCookie, session, int(service.SessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged in"})
}

func (s *Server) handleListContents(c *gin.Context) {
	library, err := s.Assistant.Library(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list contents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list contents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"contents": library})
}

func (s *Server) handleProcessURL(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	view, err := s.Assistant.ProcessURL(c.Request.Context(), req.URL, req.Language)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (s *Server) handleGetContent(c *gin.Context) {
	view, err := s.Assistant.GetContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (s *Server) handleListPosts(c *gin.Context) {
	view, err := s.Assistant.GetContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": view.Posts})
}

func (s *Server) handleProcessFeed(c *gin.Context) {
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	results, err := s.Assistant.ProcessFeed(c.Request.Context(), req.URL, req.Language, req.Limit)
	if err != nil {
		s.Logger.Error("Failed to process feed", zap.String("feed", req.URL), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) handleListSchedules(c *gin.Context) {
	items, err := s.Assistant.ScheduledView(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list schedules", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list schedules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedules": items})
}

func (s *Server) handleSchedulePost(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var when time.Time
	switch {
	case req.ScheduledTime != nil:
		when = *req.ScheduledTime
	case req.Hour != nil && req.Minute != nil:
		t, err := s.Assistant.NextOccurrence(*req.Hour, *req.Minute)
		if err != nil {
			s.writeError(c, err)
			return
		}
		when = t
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_time or hour and minute are required"})
		return
	}

	ctx := c.Request.Context()
	var (
		entry *models.ScheduledEntry
		err   error
	)
	switch {
	case req.PostID != "":
		entry, err = s.Assistant.SchedulePostID(ctx, req.PostID, when)
	case req.ContentID != "" && req.Platform != "":
		platform, perr := models.ParsePlatform(req.Platform)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": perr.Error()})
			return
		}
		entry, err = s.Assistant.SchedulePost(ctx, req.ContentID, platform, when)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "post_id or content_id and platform are required"})
		return
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleTick(c *gin.Context) {
	result, err := s.Assistant.Tick(c.Request.Context())
	if err != nil {
		s.Logger.Error("Manual tick failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tick failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.Assistant.Stats(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to count library", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count library"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	var httpErr *extractor.HTTPError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicate), errors.Is(err, store.ErrStatusConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidTime), errors.Is(err, service.ErrNoPostForPlatform):
		status = http.StatusBadRequest
	case errors.Is(err, extractor.ErrNoContent), errors.As(err, &httpErr):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.Logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
