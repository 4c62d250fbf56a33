package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartprint/backend/internal/infrastructure/auth"
	"github.com/smartprint/backend/internal/infrastructure/config"
)

func newAuthService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars-long",
		AccessTokenExpiration: expiration,
		Issuer:                "smartprint-backend",
	})
}

func setupJWTRouter(svc *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(svc))
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"uid":   GetJWTUID(c),
			"email": GetJWTEmail(c),
			"name":  GetJWTName(c),
			"token": GetJWTRawToken(c),
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTMiddlewarePassesValidToken(t *testing.T) {
	svc := newAuthService(time.Hour)
	router := setupJWTRouter(svc)

	token, _, err := svc.IssueToken("uid-7", "u@example.com", "Ravi")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":"uid-7"`)
	assert.Contains(t, w.Body.String(), `"email":"u@example.com"`)
	assert.Contains(t, w.Body.String(), token)
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	router := setupJWTRouter(newAuthService(time.Hour))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"detail"`)
}

func TestJWTMiddlewareRejectsBadScheme(t *testing.T) {
	router := setupJWTRouter(newAuthService(time.Hour))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareRejectsExpiredToken(t *testing.T) {
	expired := newAuthService(-time.Minute)
	router := setupJWTRouter(expired)

	token, _, err := expired.IssueToken("uid-7", "u@example.com", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token has expired")
}

func TestJWTMiddlewareSkipsConfiguredPaths(t *testing.T) {
	router := setupJWTRouter(newAuthService(time.Hour))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
