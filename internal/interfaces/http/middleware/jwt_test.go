package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/infrastructure/auth"
	"github.com/smartinvoice/backend/internal/infrastructure/config"
	"github.com/smartinvoice/backend/internal/infrastructure/logger"
	"github.com/smartinvoice/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "test-issuer",
	})
}

// authRouter echoes the owner seen by the gin context and by the request context
func authRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	handler := func(c *gin.Context) {
		owner, ok := GetOwnerID(c)
		c.JSON(http.StatusOK, gin.H{
			"owner":     owner.String(),
			"ok":        ok,
			"ctx_owner": logger.GetOwnerID(c.Request.Context()),
			"claims":    GetJWTClaims(c) != nil,
		})
	}
	router.GET("/api/v1/drafts", handler)
	router.GET("/api/v1/health", handler)
	return router
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService()
	owner := uuid.New()
	token, err := svc.GenerateAccessToken(owner, "pat@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := httptest.NewRecorder()
	authRouter(DefaultJWTConfig(svc)).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, owner.String(), body["owner"])
	assert.Equal(t, owner.String(), body["ctx_owner"])
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["claims"])
}

func TestJWTAuthMiddleware_Rejects(t *testing.T) {
	svc := newTestJWTService()
	expired, err := svc.GenerateAccessToken(uuid.New(), "", -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "test-issuer"}).
		GenerateAccessToken(uuid.New(), "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeTokenInvalid},
		{"wrong scheme", "Basic abc", dto.ErrCodeTokenInvalid},
		{"empty bearer", BearerPrefix, dto.ErrCodeTokenInvalid},
		{"garbage", BearerPrefix + "not.a.token", dto.ErrCodeTokenInvalid},
		{"expired", BearerPrefix + expired, dto.ErrCodeTokenExpired},
		{"foreign signature", BearerPrefix + foreign, dto.ErrCodeTokenInvalid},
	}
	router := authRouter(DefaultJWTConfig(svc))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	w := httptest.NewRecorder()
	authRouter(DefaultJWTConfig(newTestJWTService())).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":false`)
}

func TestJWTAuthMiddleware_DisabledTrustsHeader(t *testing.T) {
	router := authRouter(JWTMiddlewareConfig{Disabled: true})
	owner := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts", nil)
	req.Header.Set(DevUserHeader, owner.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), owner.String())
	assert.Contains(t, w.Body.String(), `"claims":false`)

	for _, bad := range []string{"", "not-a-uuid"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts", nil)
		req.Header.Set(DevUserHeader, bad)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, bad)
		assert.Equal(t, dto.ErrCodeUnauthorized, decodeError(t, w).Code)
	}
}

func TestGetOwnerID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetOwnerID(c)
	assert.False(t, ok)

	c.Set(logger.GinOwnerIDKey, "garbage")
	_, ok = GetOwnerID(c)
	assert.False(t, ok)

	id := uuid.New()
	c.Set(logger.GinOwnerIDKey, id.String())
	got, ok := GetOwnerID(c)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
