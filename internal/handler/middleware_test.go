package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/cve-catalog-service/internal/config"
)

func newTestEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/api/cves", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/live", func(c *gin.Context) { c.String(http.StatusOK, "alive") })
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	return r
}

func serve(r http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestLogger_AssignsAndLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := newTestEngine(RequestLogger(zerolog.New(&buf)))

	w := serve(r, "/api/cves?page=1&limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, id, line["request_id"])
	assert.Equal(t, "/api/cves", line["path"])
	assert.EqualValues(t, 200, line["status"])
	assert.Equal(t, "info", line["level"])
}

func TestRequestLogger_KeepsCallerRequestID(t *testing.T) {
	r := newTestEngine(RequestLogger(zerolog.Nop()))
	req := httptest.NewRequest(http.MethodGet, "/api/cves", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecovery_Returns500Envelope(t *testing.T) {
	r := newTestEngine(Recovery(zerolog.Nop()))
	w := serve(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}

func TestSecurityHeaders(t *testing.T) {
	r := newTestEngine(SecurityHeaders())
	w := serve(r, "/api/cves", "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, apiCSP, w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "max-age=15552000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "same-origin", w.Header().Get("Cross-Origin-Opener-Policy"))
	assert.Empty(t, w.Header().Get("X-Powered-By"))
}

func TestSecurityHeaders_DocsCSP(t *testing.T) {
	r := newTestEngine(SecurityHeaders())
	r.GET(DocsPath, func(c *gin.Context) { c.String(http.StatusOK, "docs") })

	w := serve(r, DocsPath, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "https://unpkg.com")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func testLimiter(requests, burst int) *RateLimiter {
	return NewRateLimiter(config.RateLimitConfig{Enabled: true, Requests: requests, Window: time.Hour, Burst: burst})
}

func TestRateLimit_PerClient(t *testing.T) {
	limited := 0
	r := newTestEngine(testLimiter(3, 3).Middleware(func() { limited++ }))

	for i := 0; i < 3; i++ {
		w := serve(r, "/api/cves", "10.0.0.1:1000")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}
	w := serve(r, "/api/cves", "10.0.0.1:1000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limited")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("RateLimit-Remaining"))
	assert.Equal(t, 1, limited)

	// a different client has its own budget
	other := serve(r, "/api/cves", "10.0.0.2:1000")
	assert.Equal(t, http.StatusOK, other.Code)
	assert.Equal(t, "3", other.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "2", other.Header().Get("RateLimit-Remaining"))
}

func TestRateLimit_SkipsProbes(t *testing.T) {
	r := newTestEngine(testLimiter(1, 1).Middleware(nil))
	require.Equal(t, http.StatusOK, serve(r, "/api/cves", "10.0.0.1:1").Code)
	require.Equal(t, http.StatusTooManyRequests, serve(r, "/api/cves", "10.0.0.1:1").Code)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, "/live", "10.0.0.1:1").Code)
	}
}

func TestRateLimit_SweepsIdleClients(t *testing.T) {
	rl := testLimiter(1, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	ok, _ := rl.allow("a")
	require.True(t, ok)
	ok, _ = rl.allow("a")
	require.False(t, ok)

	now = now.Add(2 * time.Hour)
	_, _ = rl.allow("b")
	rl.mu.Lock()
	_, stillThere := rl.buckets["a"]
	rl.mu.Unlock()
	assert.False(t, stillThere)
}
