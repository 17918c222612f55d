package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the service's own metrics
const MeterName = "rxforms-backend"

// Outcome attribute values
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// PrintMetrics records rendering and document catalog activity. A nil
// *PrintMetrics records nothing.
type PrintMetrics struct {
	renders        *Counter
	renderDuration *Histogram
	outputBytes    *Histogram
	documentOps    *Counter
}

// NewPrintMetrics creates the print instruments on meter
func NewPrintMetrics(meter metric.Meter) (*PrintMetrics, error) {
	renders, err := NewCounter(meter, "rxforms.print.renders", "Number of rendered prints", "{render}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "rxforms.print.render.duration",
		Description: "Time spent rendering a print",
		Unit:        "s",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
	if err != nil {
		return nil, err
	}
	size, err := NewHistogram(meter, HistogramOpts{
		Name:        "rxforms.print.output.size",
		Description: "Size of rendered output",
		Unit:        "By",
		Buckets:     []float64{1 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20, 16 << 20},
	})
	if err != nil {
		return nil, err
	}
	ops, err := NewCounter(meter, "rxforms.document.operations", "Document catalog operations", "{operation}")
	if err != nil {
		return nil, err
	}
	return &PrintMetrics{
		renders:        renders,
		renderDuration: duration,
		outputBytes:    size,
		documentOps:    ops,
	}, nil
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// RecordRender records one render attempt in the given output format
func (m *PrintMetrics) RecordRender(ctx context.Context, format string, elapsed time.Duration, size int, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("format", format),
		attribute.String("outcome", outcome(err)),
	}
	m.renders.Inc(ctx, attrs...)
	m.renderDuration.RecordDuration(ctx, elapsed, attrs...)
	if err == nil {
		m.outputBytes.Record(ctx, float64(size), attribute.String("format", format))
	}
}

// RecordDocumentOperation records one catalog operation such as import or rename
func (m *PrintMetrics) RecordDocumentOperation(ctx context.Context, operation string, err error) {
	if m == nil {
		return
	}
	m.documentOps.Inc(ctx,
		attribute.String("operation", operation),
		attribute.String("outcome", outcome(err)),
	)
}
