package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const (
	loggerKey       contextKey = "logger"
	requestIDKey    contextKey = "request_id"
	documentNameKey contextKey = "document_name"
	printJobIDKey   contextKey = "print_job_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID records the request ID; ContextLogger adds it to entries
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithDocument records the document a request operates on
func WithDocument(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, documentNameKey, name)
}

// WithPrintJob records the print job a request belongs to
func WithPrintJob(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, printJobIDKey, jobID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// GetDocumentName retrieves the document name from context
func GetDocumentName(ctx context.Context) string {
	return stringValue(ctx, documentNameKey)
}

// GetPrintJobID retrieves the print job ID from context
func GetPrintJobID(ctx context.Context) string {
	return stringValue(ctx, printJobIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// traceFields returns trace_id and span_id for the active span, if any
func traceFields(ctx context.Context) []zap.Field {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	}
}

// WithTraceContext adds trace_id and span_id to logger when ctx carries a
// valid span
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if fields := traceFields(ctx); fields != nil {
		return logger.With(fields...)
	}
	return logger
}

// ContextLogger logs with the correlation fields found in its context:
// trace and span IDs, request ID, document name and print job ID.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger backed by the logger stored in ctx.
// Usage: logger.L(ctx).Info("message", zap.String("key", "value"))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

// WithLogger returns a ContextLogger using the provided logger instead of
// the one stored in ctx
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: logger}
}

func (cl *ContextLogger) enrichedLogger() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}

	fields := traceFields(cl.ctx)
	if v := GetRequestID(cl.ctx); v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if v := GetDocumentName(cl.ctx); v != "" {
		fields = append(fields, zap.String("document", v))
	}
	if v := GetPrintJobID(cl.ctx); v != "" {
		fields = append(fields, zap.String("print_job_id", v))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// With creates a child ContextLogger with additional fields
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	base := cl.logger
	if base == nil {
		base = zap.NewNop()
	}
	return &ContextLogger{ctx: cl.ctx, logger: base.With(fields...)}
}

// Debug logs at debug level
func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Debug(msg, fields...)
}

// Info logs at info level
func (cl *ContextLogger) Info(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Info(msg, fields...)
}

// Warn logs at warn level
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Warn(msg, fields...)
}

// Error logs at error level
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Error(msg, fields...)
}

// Log logs at the given level
func (cl *ContextLogger) Log(level zapcore.Level, msg string, fields ...zap.Field) {
	cl.enrichedLogger().Log(level, msg, fields...)
}

// Zap returns the underlying zap.Logger enriched with context fields, for
// APIs that expect a *zap.Logger
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.enrichedLogger()
}
