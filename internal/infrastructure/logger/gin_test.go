package logger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(l *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Next()
	})
	r.Use(GinMiddleware(l), Recovery(l))
	return r
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusServiceUnavailable, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			r := newRouter(zap.New(core))
			r.GET("/documents/:name", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/Receita?q=x", nil))

			logs := recorded.FilterMessage("HTTP Request").All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
			fields := logs[0].ContextMap()
			assert.Equal(t, "req-42", fields["request_id"])
			assert.Equal(t, "/documents/:name", fields["route"])
			assert.Equal(t, "q=x", fields["query"])
			assert.EqualValues(t, tt.status, fields["status"])
		})
	}
}

func TestGinMiddleware_PropagatesLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	r := newRouter(zap.New(core))
	r.GET("/health", func(c *gin.Context) {
		assert.Equal(t, "req-42", GetRequestID(c.Request.Context()))
		L(c.Request.Context()).Info("from service")
		GetGinLogger(c).Info("from handler")
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	for _, msg := range []string{"from service", "from handler"} {
		logs := recorded.FilterMessage(msg).All()
		require.Len(t, logs, 1, msg)
		assert.Equal(t, "req-42", logs[0].ContextMap()["request_id"])
	}
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	r := newRouter(zap.New(core))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, "req-42", body.Error.RequestID)
	assert.Len(t, recorded.FilterMessage("Panic recovered").All(), 1)
}

func TestGetGinLogger_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
