package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the document and print spans
const TracerName = "rxforms-backend"

// Attribute keys shared by the document and print spans
const (
	SpanAttrDocumentName   = "document_name"
	SpanAttrDocumentSource = "document_source"
	SpanAttrDocumentCount  = "document_count"
	SpanAttrObjectsCount   = "objects_count"

	SpanAttrPrintFormat = "print_format"
	SpanAttrPrintJobID  = "print_job_id"
	SpanAttrOutputBytes = "output_bytes"
)

// SpanOption configures a span started by StartSpan
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind  trace.SpanKind
	attrs []attribute.KeyValue
}

// WithAttribute adds an attribute to the span at start
func WithAttribute(key string, value any) SpanOption {
	return func(c *spanConfig) {
		c.attrs = append(c.attrs, toAttribute(key, value))
	}
}

// WithSpanKind sets the span kind; spans are internal by default
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// StartSpan starts a span on the global tracer provider. The caller ends it.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, trace.Span) {
	cfg := spanConfig{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := []trace.SpanStartOption{trace.WithSpanKind(cfg.kind)}
	if len(cfg.attrs) > 0 {
		start = append(start, trace.WithAttributes(cfg.attrs...))
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name, start...)
}

// StartServiceSpan starts a span named "{service}.{method}", for example
// "document.import" or "printing.print".
func StartServiceSpan(ctx context.Context, service, method string, opts ...SpanOption) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, opts...)
}

// SetAttributes sets alternating key/value pairs on span. Pairs whose key
// is not a string are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span != nil {
		span.SetAttributes(toAttributes(keyValues)...)
	}
}

// SetAttribute sets a single attribute on span
func SetAttribute(span trace.Span, key string, value any) {
	if span != nil {
		span.SetAttributes(toAttribute(key, value))
	}
}

// RecordError records err on span and marks the span failed
func RecordError(span trace.Span, err error, opts ...trace.EventOption) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks span successful
func SetOK(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// AddEvent adds a timestamped event with alternating key/value attributes,
// such as the name a duplicate was given
func AddEvent(span trace.Span, name string, keyValues ...any) {
	if span != nil {
		span.AddEvent(name, trace.WithAttributes(toAttributes(keyValues)...))
	}
}

// GetTraceID returns the trace ID of the span in ctx, or "" without one
func GetTraceID(ctx context.Context) string {
	if id := trace.SpanContextFromContext(ctx).TraceID(); id.IsValid() {
		return id.String()
	}
	return ""
}

// GetSpanID returns the span ID of the span in ctx, or "" without one
func GetSpanID(ctx context.Context) string {
	if id := trace.SpanContextFromContext(ctx).SpanID(); id.IsValid() {
		return id.String()
	}
	return ""
}

func toAttributes(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		if key, ok := keyValues[i].(string); ok {
			attrs = append(attrs, toAttribute(key, keyValues[i+1]))
		}
	}
	return attrs
}

// toAttribute maps a Go value to an attribute. Durations are recorded in
// milliseconds.
func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case time.Duration:
		return attribute.Int64(key, v.Milliseconds())
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
