package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/internhub/backend/internal/auth"
	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/internal/session"
)

func protected(jwtService *auth.JWTService, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWT(jwtService))
	handlers := []gin.HandlerFunc{}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		sess, _ := session.From(c)
		c.String(http.StatusOK, sess.Username)
	})
	r.GET("/x", handlers...)
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWT(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	token, err := svc.Generate(session.Session{Username: "u1", Role: models.RoleIntern})
	require.NoError(t, err)
	r := protected(svc)

	w := get(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "u1", w.Body.String())

	require.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "Token "+token).Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "Bearer garbage").Code)

	other, err := auth.NewJWTService("other", 1).Generate(session.Session{Username: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+other).Code)
}

func TestRequireRole(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	r := protected(svc, models.RoleAdmin)

	intern, err := svc.Generate(session.Session{Username: "u1", Role: models.RoleIntern})
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, get(r, "Bearer "+intern).Code)

	admin, err := svc.Generate(session.Session{Username: "boss", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, get(r, "Bearer "+admin).Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("http://a.test, http://b.test"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://b.test")
	r.ServeHTTP(w, req)
	require.Equal(t, "http://b.test", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestParseOrigins(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, parseOrigins(" a ,, b "))
	require.Nil(t, parseOrigins(""))
}

func TestLoggerSkipsProbesAndTagsRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NotEmpty(t, w.Header().Get(RequestIDHeader))
	require.Zero(t, logs.Len())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(w, req)
	require.Equal(t, "req-1", w.Header().Get(RequestIDHeader))

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, zap.WarnLevel, entries[0].Level)
	require.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
}
