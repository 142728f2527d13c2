package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
)

const (
	SessionCookie = "auth_token"
	SessionTTL    = 12 * time.Hour
)

type AuthService struct {
	logger     *zap.Logger
	totpSecret string

	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

func NewAuthService(logger *zap.Logger, totpSecret string) *AuthService {
	return &AuthService{
		logger:     logger,
		totpSecret: totpSecret,
		sessions:   make(map[string]time.Time),
		now:        time.Now,
	}
}

// Enabled reports whether a TOTP secret is configured. Without one the API
// is open.
func (a *AuthService) Enabled() bool {
	return a.totpSecret != ""
}

// GenerateSecret creates a new TOTP key and returns its secret and otpauth URL.
func (a *AuthService) GenerateSecret(accountName string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "murmur",
		AccountName: accountName,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	return key.Secret(), key.URL(), nil
}

func (a *AuthService) ValidateToken(token string) bool {
	valid := totp.Validate(token, a.totpSecret)
	if valid {
		a.logger.Info("TOTP token validation successful")
	} else {
		a.logger.Warn("TOTP token validation failed")
	}
	return valid
}

// Login validates a TOTP code and opens a session.
func (a *AuthService) Login(code string) (string, bool) {
	if !a.Enabled() || !a.ValidateToken(strings.TrimSpace(code)) {
		return "", false
	}
	session, err := a.CreateSession()
	if err != nil {
		a.logger.Error("Failed to create session", zap.Error(err))
		return "", false
	}
	return session, true
}

func (a *AuthService) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() || c.Request.URL.Path == "/api/v1/auth/login" {
			c.Next()
			return
		}

		token, err := c.Cookie(SessionCookie)
		if err != nil || !a.isValidSession(token) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (a *AuthService) isValidSession(token string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	expires, ok := a.sessions[token]
	if !ok {
		return false
	}
	if a.now().After(expires) {
		delete(a.sessions, token)
		return false
	}
	return true
}

func (a *AuthService) CreateSession() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	a.mu.Lock()
	a.sessions[token] = a.now().Add(SessionTTL)
	a.mu.Unlock()
	return token, nil
}
