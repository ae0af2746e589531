package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"earntube/internal/domain"
	"earntube/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	service.InitJWT("middleware-test-secret")
}

func bearer(t *testing.T, userID int64, role domain.Role) string {
	t.Helper()
	tok, err := service.GenerateJWT(userID, role)
	require.NoError(t, err)
	return "Bearer " + tok
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWT(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWT(), func(c *gin.Context) {
		a := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": a.UserID, "role": a.Role})
	})

	tests := []struct {
		name string
		auth string
		code int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid", bearer(t, 5, domain.RoleUser), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(r, http.MethodGet, "/me", tt.auth)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	rec := serve(r, http.MethodGet, "/me", bearer(t, 5, domain.RoleUser))
	assert.JSONEq(t, `{"id":5,"role":"user"}`, rec.Body.String())
}

func TestAdminOnly(t *testing.T) {
	r := gin.New()
	r.GET("/admin", JWT(), AdminOnly(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", bearer(t, 1, domain.RoleUser)).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/admin", bearer(t, 2, domain.RoleAdmin)).Code)
}

func TestSimpleRateLimitPerUser(t *testing.T) {
	r := gin.New()
	r.POST("/w", JWT(), SimpleRateLimit(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	alice := bearer(t, 10, domain.RoleUser)
	bob := bearer(t, 11, domain.RoleUser)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/w", alice).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/w", alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/w", alice).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/w", bob).Code)
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	l := &memoryLimiter{clients: map[string]*clientInfo{}, window: time.Second, max: 1}
	now := time.Now()

	assert.True(t, l.allow("k", now))
	assert.False(t, l.allow("k", now.Add(500*time.Millisecond)))
	assert.True(t, l.allow("k", now.Add(2*time.Second)))
}

func TestUserRateLimitRequiresActor(t *testing.T) {
	r := gin.New()
	r.POST("/w", UserRateLimit("withdraw", 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/w", "").Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, http.MethodGet, "/ping", "")
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	id := uuid.NewString()
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
}
