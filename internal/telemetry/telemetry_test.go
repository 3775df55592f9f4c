package telemetry

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
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTelemetry installs in-memory providers and re-binds the package.
func setupTestTelemetry(t *testing.T) (*tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	spanRecorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder)))

	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	t.Cleanup(func() {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
		otel.SetMeterProvider(sdkmetric.NewMeterProvider())
		Init()
	})

	Init()
	return spanRecorder, reader
}

func findSum(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m.Data.(metricdata.Sum[int64])
			}
		}
	}
	t.Fatalf("metric %s not recorded", name)
	return metricdata.Sum[int64]{}
}

func TestStartBringUpSpan(t *testing.T) {
	recorder, _ := setupTestTelemetry(t)

	_, span := StartBringUpSpan(context.Background(), "weather", 2)
	EndSpan(span, errors.New("handshake failed"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "toolpool.session.initialize", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("toolpool.server.name", "weather"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("toolpool.attempt", 2))
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "handshake failed", spans[0].Status().Description)
}

func TestStartToolCallSpan(t *testing.T) {
	recorder, _ := setupTestTelemetry(t)

	ctx := context.Background()
	newCtx, span := StartToolCallSpan(ctx, "get_forecast", attribute.String("toolpool.server.name", "weather"))
	assert.NotEqual(t, ctx, newCtx)
	EndSpan(span, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "mcp.tool.call", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("mcp.tool.name", "get_forecast"))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestRecordToolCall(t *testing.T) {
	_, reader := setupTestTelemetry(t)

	RecordToolCall(context.Background(), "weather", "get_forecast", 150*time.Millisecond, false)
	RecordToolCall(context.Background(), "", "missing", time.Millisecond, true)

	sum := findSum(t, reader, "toolpool.tool.calls")
	require.Len(t, sum.DataPoints, 2)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
		name, _ := dp.Attributes.Value("mcp.tool.name")
		result, _ := dp.Attributes.Value("toolpool.outcome")
		if name.AsString() == "missing" {
			assert.Equal(t, "error", result.AsString())
		} else {
			assert.Equal(t, "success", result.AsString())
		}
	}
	assert.Equal(t, int64(2), total)
}

func TestRecordBringUpAttempt(t *testing.T) {
	_, reader := setupTestTelemetry(t)

	RecordBringUpAttempt(context.Background(), "weather", true)
	RecordBringUpAttempt(context.Background(), "weather", true)
	RecordBringUpAttempt(context.Background(), "weather", false)

	sum := findSum(t, reader, "toolpool.bringup.attempts")
	byOutcome := map[string]int64{}
	for _, dp := range sum.DataPoints {
		result, _ := dp.Attributes.Value("toolpool.outcome")
		byOutcome[result.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"error": 2, "success": 1}, byOutcome)
}
