package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": GetRequestID(c)})
	})
	return r
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(RequestID())

	t.Run("generates an ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get(RequestIDHeader)
		require.NotEmpty(t, id)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"request_id":"`+id+`"}`, w.Body.String())
	})

	t.Run("keeps the client ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "req-abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-abc", w.Header().Get(RequestIDHeader))
		assert.JSONEq(t, `{"request_id":"req-abc"}`, w.Body.String())
	})

	t.Run("IDs differ between requests", func(t *testing.T) {
		w1, w2 := httptest.NewRecorder(), httptest.NewRecorder()
		r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/test", nil))
		r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.NotEqual(t, w1.Header().Get(RequestIDHeader), w2.Header().Get(RequestIDHeader))
	})
}

func TestGetRequestID_FallsBackToHeader(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "from-header")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.JSONEq(t, `{"request_id":"from-header"}`, w.Body.String())
}

func TestCORSWithConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://app.example.com"}

	t.Run("allowed origin", func(t *testing.T) {
		r := newTestRouter(CORSWithConfig(cfg))
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), PrintJobIDHeader)
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		r := newTestRouter(CORSWithConfig(cfg))
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight answers 204", func(t *testing.T) {
		r := newTestRouter(CORSWithConfig(cfg))
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
	})

	t.Run("preflight from unknown origin", func(t *testing.T) {
		r := newTestRouter(CORSWithConfig(cfg))
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard never allows credentials", func(t *testing.T) {
		wild := DefaultCORSConfig()
		wild.AllowOrigins = []string{"*"}
		r := newTestRouter(CORSWithConfig(wild))
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "https://any.example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestSecureWithConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r := newTestRouter(Secure())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Contains(t, w.Header().Get("Content-Security-Policy"), "script-src 'none'")
		assert.NotEmpty(t, w.Header().Get("Permissions-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("HSTS", func(t *testing.T) {
		cfg := DefaultSecurityConfig()
		cfg.HSTSEnabled = true
		cfg.HSTSMaxAge = int((24 * time.Hour).Seconds())
		r := newTestRouter(SecureWithConfig(cfg))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, "max-age=86400; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	})
}
