package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func query(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Options(t *testing.T) {
	gl := NewGormLogger(nil, gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)
	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)

	warn, ok := gl.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, warn.logLevel)
	assert.Equal(t, gormlogger.Info, gl.logLevel)
}

func TestGormLogger_Trace(t *testing.T) {
	const stmt = `SELECT * FROM "documents" WHERE key = 'rxforms.document:Receita'`

	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		opts    []GormLoggerOption
		begin   time.Time
		err     error
		wantMsg string
		want    zapcore.Level
	}{
		{"error", gormlogger.Error, nil, time.Now(), errors.New("connection reset"), "Statement failed", zapcore.ErrorLevel},
		{"slow query", gormlogger.Warn, []GormLoggerOption{WithSlowThreshold(time.Nanosecond)}, time.Now().Add(-time.Second), nil, "Slow statement", zapcore.WarnLevel},
		{"normal query", gormlogger.Info, nil, time.Now(), nil, "Statement", zapcore.DebugLevel},
		{"not found reported when asked", gormlogger.Error, []GormLoggerOption{WithIgnoreRecordNotFoundError(false)}, time.Now(), gormlogger.ErrRecordNotFound, "Statement failed", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.level, tt.opts...)

			gl.Trace(context.Background(), tt.begin, query(stmt, 1), tt.err)

			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantMsg, logs[0].Message)
			assert.Equal(t, tt.want, logs[0].Level)
			assert.Equal(t, stmt, logs[0].ContextMap()["sql"])
		})
	}
}

func TestGormLogger_Trace_Suppressed(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	NewGormLogger(zap.New(core), gormlogger.Silent).
		Trace(context.Background(), time.Now(), query("SELECT 1", 1), errors.New("ignored"))
	NewGormLogger(zap.New(core), gormlogger.Error).
		Trace(context.Background(), time.Now(), query("SELECT 1", 0), gormlogger.ErrRecordNotFound)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_CarriesRequestContext(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info)

	ctx := WithRequestID(context.Background(), "req-5")
	ctx = WithDocument(ctx, "Receita")
	gl.Trace(ctx, time.Now(), query("SELECT 1", 1), nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "req-5", logs[0].ContextMap()["request_id"])
	assert.Equal(t, "Receita", logs[0].ContextMap()["document"])
}

func TestGormLogger_Messages(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn)

	gl.Info(context.Background(), "hidden %d", 1)
	gl.Warn(context.Background(), "migrated %s", "documents")
	gl.Error(context.Background(), "failed %s", "documents")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "migrated documents", logs[0].Message)
	assert.Equal(t, "failed documents", logs[1].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}

var _ gormlogger.Interface = (*GormLogger)(nil)
