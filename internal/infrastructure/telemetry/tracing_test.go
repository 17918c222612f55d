package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/rxforms/backend/internal/infrastructure/telemetry"
)

// setupTestTracer installs an in-memory span recorder as the global
// provider for the duration of the test
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(kvs []attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "document", "import",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentName, "Receita"),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "document.import", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, "Receita", attrMap(spans[0].Attributes())[telemetry.SpanAttrDocumentName])
}

func TestStartSpan_DefaultsToInternal(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "print.render")
	span.End()

	require.Len(t, sr.Ended(), 1)
	assert.Equal(t, trace.SpanKindInternal, sr.Ended()[0].SpanKind())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "print.render")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPrintFormat, "pdf",
		telemetry.SpanAttrObjectsCount, 3,
		telemetry.SpanAttrOutputBytes, int64(2048),
		"landscape", true,
		"elapsed", 1500*time.Millisecond,
		42, "ignored: key is not a string",
		"dangling",
	)
	telemetry.SetAttribute(span, "ratio", 0.5)
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, "pdf", attrs[telemetry.SpanAttrPrintFormat])
	assert.Equal(t, int64(3), attrs[telemetry.SpanAttrObjectsCount])
	assert.Equal(t, int64(2048), attrs[telemetry.SpanAttrOutputBytes])
	assert.Equal(t, true, attrs["landscape"])
	assert.Equal(t, int64(1500), attrs["elapsed"])
	assert.Equal(t, 0.5, attrs["ratio"])
	assert.NotContains(t, attrs, "dangling")
	assert.Len(t, attrs, 6)
}

func TestRecordErrorAndSetOK(t *testing.T) {
	sr := setupTestTracer(t)

	_, failed := telemetry.StartSpan(context.Background(), "failed")
	telemetry.RecordError(failed, errors.New("browser unavailable"))
	failed.End()

	_, ok := telemetry.StartSpan(context.Background(), "ok")
	telemetry.RecordError(ok, nil)
	telemetry.SetOK(ok)
	ok.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "browser unavailable", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
	assert.Empty(t, spans[1].Events())
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "document.import")
	telemetry.AddEvent(span, "name_resolved", telemetry.SpanAttrDocumentName, "Teste (1)")
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "name_resolved", events[0].Name)
	assert.Equal(t, "Teste (1)", attrMap(events[0].Attributes)[telemetry.SpanAttrDocumentName])
}

func TestTraceAndSpanIDs(t *testing.T) {
	setupTestTracer(t)

	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))

	ctx, span := telemetry.StartSpan(context.Background(), "op")
	defer span.End()
	assert.Equal(t, span.SpanContext().TraceID().String(), telemetry.GetTraceID(ctx))
	assert.Equal(t, span.SpanContext().SpanID().String(), telemetry.GetSpanID(ctx))
}

func TestNilSpanHelpersDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.SetAttribute(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "e")
	})
}
