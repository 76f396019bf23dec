package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/cms-api/internal/config"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens() *auth.Manager {
	return auth.NewManager(config.JWTConfig{
		SecretKey:            "middleware-secret",
		AccessExpireSeconds:  60,
		RefreshExpireSeconds: 3600,
	}, nil)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := GetUserID(c)
		role, _ := GetUserRole(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})
	r.GET("/", handlers...)
	return r
}

func do(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	tokens := newTokens()
	r := newRouter(JWTAuth(tokens, 0))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "garbage").Code)

	pair, err := tokens.GenerateTokenPair(7, model.RoleUser)
	require.NoError(t, err)

	w := do(r, pair.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"role":"user"}`, w.Body.String())

	// 刷新令牌不能用于访问资源
	assert.Equal(t, http.StatusUnauthorized, do(r, pair.RefreshToken).Code)
}

func TestJWTAuthExpireSoonHeader(t *testing.T) {
	tokens := newTokens()
	r := newRouter(JWTAuth(tokens, 0))
	soon := newRouter(JWTAuth(tokens, 10*time.Minute))

	pair, err := tokens.GenerateTokenPair(1, model.RoleUser)
	require.NoError(t, err)

	assert.Empty(t, do(r, pair.AccessToken).Header().Get("X-Token-Expire-Soon"))
	assert.Equal(t, "true", do(soon, pair.AccessToken).Header().Get("X-Token-Expire-Soon"))
}

func TestAdminAuth(t *testing.T) {
	tokens := newTokens()
	r := newRouter(AdminAuth(tokens, 0))

	user, err := tokens.GenerateTokenPair(1, model.RoleUser)
	require.NoError(t, err)
	admin, err := tokens.GenerateTokenPair(2, model.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, user.AccessToken).Code)
	assert.Equal(t, http.StatusOK, do(r, admin.AccessToken).Code)
}

func TestOptionalAuth(t *testing.T) {
	tokens := newTokens()
	r := newRouter(OptionalAuth(tokens))

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":0,"role":""}`, w.Body.String())

	assert.Equal(t, http.StatusOK, do(r, "garbage").Code)

	pair, err := tokens.GenerateTokenPair(3, model.RoleAdmin)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"role":"admin"}`, do(r, pair.AccessToken).Body.String())
}

func TestCors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Cors(config.CorsConfig{AllowOrigins: []string{"https://blog.example.com"}, AllowCredentials: true}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://blog.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAdminAuthStopsBeforeHandler(t *testing.T) {
	tokens := newTokens()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ran := false
	r.DELETE("/articles/1", AdminAuth(tokens, 0), func(c *gin.Context) {
		ran = true
		c.Status(http.StatusOK)
	})

	user, err := tokens.GenerateTokenPair(1, model.RoleUser)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/articles/1", nil)
	req.Header.Set("Authorization", "Bearer "+user.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, ran)
}
