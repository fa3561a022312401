package middleware

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alchemorsel/pantrychef/internal/infrastructure/config"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/monitoring"
	"github.com/alchemorsel/pantrychef/pkg/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		App:        config.AppConfig{Environment: "production"},
		Server:     config.ServerConfig{EnableCORS: true, AllowedOrigins: []string{"https://pantry.example"}, EnableCompression: true},
		Monitoring: config.MonitoringConfig{MetricsPath: "/metrics"},
	}
}

func newRouter(m *Middleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.RequestID(), m.Recovery(), m.Security(), m.CORS(), m.Compression(), m.ErrorHandler())
	return r
}

func TestRequestIDIsGeneratedAndPropagated(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	r := newRouter(m)

	var fromContext string
	r.GET("/ping", func(c *gin.Context) {
		fromContext = monitoring.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, fromContext)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "client-id", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestErrorHandlerRendersEnvelope(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	r := newRouter(m)
	r.POST("/min", func(c *gin.Context) {
		_ = c.Error(errors.NewMinIngredientsError("Please add ingredients"))
	})
	r.POST("/boom", func(c *gin.Context) {
		_ = c.Error(stderrors.New("db down"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/min", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.CodeMinIngredients, resp.Error.Code)
	assert.Equal(t, "Please add ingredients", resp.Error.Message)
	assert.NotEmpty(t, resp.Error.RequestID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestErrorHandlerLogsStackForServerErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := New(testConfig(), zap.New(core))
	r := newRouter(m)
	r.POST("/save", func(c *gin.Context) {
		_ = c.Error(errors.NewDatabaseError("Could not save.", "save recipe", stderrors.New("disk full")))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/save", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := logs.FilterMessage("Request error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(errors.CodeDatabaseError), entries[0].ContextMap()["code"])
	assert.NotEmpty(t, entries[0].ContextMap()["stack"])
}

func TestRecovery(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	r := newRouter(m)
	r.GET("/panic", func(c *gin.Context) { panic("unexpected") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), string(errors.CodeInternal))
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	r := newRouter(m)
	r.POST("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api", nil)
	req.Header.Set("Origin", "https://pantry.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://pantry.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCompression(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	r := newRouter(m)
	payload := strings.Repeat("tomato pasta ", 200)
	r.GET("/recipe", func(c *gin.Context) { c.String(http.StatusOK, payload) })

	req := httptest.NewRequest(http.MethodGet, "/recipe", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	assert.Less(t, w.Body.Len(), len(payload))
	decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, payload, string(decoded))

	req = httptest.NewRequest(http.MethodGet, "/recipe", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, payload, w.Body.String())
}

func TestAcceptsBrotli(t *testing.T) {
	assert.True(t, acceptsBrotli("br"))
	assert.True(t, acceptsBrotli("gzip, deflate, br;q=0.8"))
	assert.False(t, acceptsBrotli("br;q=0"))
	assert.False(t, acceptsBrotli("gzip"))
	assert.False(t, acceptsBrotli(""))
}

func TestBodySizeLimit(t *testing.T) {
	m := New(testConfig(), zap.NewNop())
	r := newRouter(m)
	r.Use(m.BodySizeLimit(16))
	r.POST("/upload", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 32))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter("generate", 2, 2, 0, zap.NewNop())
	defer rl.Close()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rl.Handler())
	r.POST("/generate", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	limited := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "30", limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
	assert.Equal(t, 2, rl.Clients())
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter("feedback", 10, 0, 0, zap.NewNop())
	defer rl.Close()

	now := time.Now()
	rl.now = func() time.Time { return now }
	allowed, _ := rl.Allow("a")
	require.True(t, allowed)

	rl.now = func() time.Time { return now.Add(2 * time.Minute) }
	rl.Allow("b")
	rl.evictIdle(time.Minute)

	assert.Equal(t, 1, rl.Clients())
}
