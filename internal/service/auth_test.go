package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuthLogin(t *testing.T) {
	auth := NewAuthService(zap.NewNop(), "")
	secret, url, err := auth.GenerateSecret("tester")
	require.NoError(t, err)
	assert.Contains(t, url, "otpauth://totp/")

	auth = NewAuthService(zap.NewNop(), secret)
	require.True(t, auth.Enabled())

	_, ok := auth.Login("000000x")
	assert.False(t, ok)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	session, ok := auth.Login(code)
	require.True(t, ok)
	assert.True(t, auth.isValidSession(session))
	assert.False(t, auth.isValidSession("forged-session-token"))
}

func TestAuthSessionExpires(t *testing.T) {
	auth := NewAuthService(zap.NewNop(), "JBSWY3DPEHPK3PXP")
	session, err := auth.CreateSession()
	require.NoError(t, err)

	auth.now = func() time.Time { return time.Now().Add(SessionTTL + time.Minute) }
	assert.False(t, auth.isValidSession(session))
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(auth *AuthService) *gin.Engine {
		r := gin.New()
		r.Use(auth.AuthMiddleware())
		r.GET("/api/v1/contents", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	open := newRouter(NewAuthService(zap.NewNop(), ""))
	w := httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/contents", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	auth := NewAuthService(zap.NewNop(), "JBSWY3DPEHPK3PXP")
	guarded := newRouter(auth)

	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/contents", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	session, err := auth.CreateSession()
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/contents", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session})
	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
