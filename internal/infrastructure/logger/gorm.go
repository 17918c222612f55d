package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger implements GORM's logger interface using zap. Statements are
// logged with the request and document fields found in the query context.
type GormLogger struct {
	logger                    *zap.Logger
	logLevel                  gormlogger.LogLevel
	slowThreshold             time.Duration
	ignoreRecordNotFoundError bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the slow query threshold; zero disables it
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowThreshold = threshold
	}
}

// WithIgnoreRecordNotFoundError configures whether record-not-found
// errors are logged. Missing documents are routine, so they are ignored by
// default.
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.ignoreRecordNotFoundError = ignore
	}
}

// NewGormLogger creates a GORM logger backed by zap
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	gl := &GormLogger{
		logger:                    zapLogger.Named("gorm"),
		logLevel:                  level,
		slowThreshold:             200 * time.Millisecond,
		ignoreRecordNotFoundError: true,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, min gormlogger.LogLevel, level zapcore.Level, msg string, data []any) {
	if l.logLevel < min {
		return
	}
	WithLogger(ctx, l.logger).Log(level, fmt.Sprintf(msg, data...))
}

// Trace implements gormlogger.Interface. Failed statements are logged at
// error level, statements slower than the threshold at warn level and the
// rest at debug level when the mode is Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}
	if err != nil && l.ignoreRecordNotFoundError && errors.Is(err, gormlogger.ErrRecordNotFound) {
		err = nil
	}

	elapsed := time.Since(begin)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold

	var level zapcore.Level
	var msg string
	switch {
	case err != nil && l.logLevel >= gormlogger.Error:
		level, msg = zapcore.ErrorLevel, "Statement failed"
	case slow && l.logLevel >= gormlogger.Warn:
		level, msg = zapcore.WarnLevel, "Slow statement"
	case l.logLevel >= gormlogger.Info:
		level, msg = zapcore.DebugLevel, "Statement"
	default:
		return
	}

	statement, rows := fc()
	fields := []zap.Field{
		zap.String("sql", statement),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
	if slow {
		fields = append(fields, zap.Duration("threshold", l.slowThreshold))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	WithLogger(ctx, l.logger).Log(level, msg, fields...)
}

// MapGormLogLevel maps a configured level name to a GORM log level
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
