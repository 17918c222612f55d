package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*PrintMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewPrintMetrics(provider.Meter(MeterName))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestPrintMetrics_RecordRender(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRender(ctx, "pdf", 120*time.Millisecond, 4096, nil)
	m.RecordRender(ctx, "pdf", 80*time.Millisecond, 2048, nil)
	m.RecordRender(ctx, "png", time.Second, 0, errors.New("decode failed"))

	metrics := collect(t, reader)

	renders, ok := metrics["rxforms.print.renders"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := map[attribute.Distinct]int64{}
	for _, dp := range renders.DataPoints {
		counts[dp.Attributes.Equivalent()] = dp.Value
	}
	pdfOK := attribute.NewSet(attribute.String("format", "pdf"), attribute.String("outcome", OutcomeSuccess))
	pngErr := attribute.NewSet(attribute.String("format", "png"), attribute.String("outcome", OutcomeError))
	assert.Equal(t, int64(2), counts[pdfOK.Equivalent()])
	assert.Equal(t, int64(1), counts[pngErr.Equivalent()])

	size, ok := metrics["rxforms.print.output.size"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, size.DataPoints, 1, "failed renders record no output size")
	assert.Equal(t, uint64(2), size.DataPoints[0].Count)
	assert.Equal(t, 6144.0, size.DataPoints[0].Sum)

	duration, ok := metrics["rxforms.print.render.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, duration.DataPoints, 2)
}

func TestPrintMetrics_RecordDocumentOperation(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordDocumentOperation(context.Background(), "import", nil)
	m.RecordDocumentOperation(context.Background(), "rename", errors.New("name is already in use"))

	ops, ok := collect(t, reader)["rxforms.document.operations"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, ops.DataPoints, 2)
}

func TestPrintMetrics_NilIsNoop(t *testing.T) {
	var m *PrintMetrics
	assert.NotPanics(t, func() {
		m.RecordRender(context.Background(), "pdf", time.Second, 1, nil)
		m.RecordDocumentOperation(context.Background(), "delete", nil)
	})
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{}, nil)
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	m, err := NewPrintMetrics(mp.Meter(MeterName))
	require.NoError(t, err)
	m.RecordRender(context.Background(), "html", time.Millisecond, 10, nil)
	assert.NoError(t, mp.Shutdown(context.Background()))
}
