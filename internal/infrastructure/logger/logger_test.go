package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("nil config falls back to defaults", func(t *testing.T) {
		l, err := New(nil)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("respects the configured level", func(t *testing.T) {
		l, err := New(&Config{Level: "warn", Format: "json", Output: "discard"})
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("writes to a file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		l, err := New(&Config{Level: "info", Format: "json", Output: path})
		require.NoError(t, err)

		l.Info("document saved", zap.String("document", "Receita"))
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"document":"Receita"`)
	})

	t.Run("fails when the file cannot be opened", func(t *testing.T) {
		_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open log output")
	})
}

func TestNewForEnvironment(t *testing.T) {
	prod, err := NewForEnvironment("production")
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))

	dev, err := NewForEnvironment("development")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info")

	l.Debug("hidden")
	l.Info("printed", zap.String("format", "pdf"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "printed", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "pdf", entry["format"])
}

func TestConsoleEncoder(t *testing.T) {
	var buf bytes.Buffer
	l := zap.New(zapcore.NewCore(createEncoder(&Config{Format: "console"}), zapcore.AddSync(&buf), zapcore.InfoLevel))
	l.Info("console line")
	assert.Contains(t, buf.String(), "console line")
	assert.NotContains(t, buf.String(), `"msg"`)
}
