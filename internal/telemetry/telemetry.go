package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/giantswarm/mcp-toolpool/pkg/logging"
)

const (
	// TracerName is the instrumentation scope used for spans.
	TracerName = "github.com/giantswarm/mcp-toolpool"

	// MeterName is the instrumentation scope used for metrics.
	MeterName = "github.com/giantswarm/mcp-toolpool"
)

var (
	tracer trace.Tracer
	meter  metric.Meter

	// ToolCallCounter counts dispatched tool calls by server and outcome.
	ToolCallCounter metric.Int64Counter

	// ToolCallDuration records tool call latency in milliseconds.
	ToolCallDuration metric.Float64Histogram

	// BringUpAttemptCounter counts session initialisation attempts by server
	// and outcome.
	BringUpAttemptCounter metric.Int64Counter
)

// Init binds the package to the global tracer and meter providers. Call it
// after any SDK providers have been installed.
func Init() {
	tracer = otel.GetTracerProvider().Tracer(TracerName)
	meter = otel.GetMeterProvider().Meter(MeterName)

	var err error
	ToolCallCounter, err = meter.Int64Counter("toolpool.tool.calls",
		metric.WithDescription("Number of tool calls dispatched"),
		metric.WithUnit("1"))
	if err != nil {
		logging.Warn("Telemetry", "Failed to create tool call counter: %v", err)
	}

	ToolCallDuration, err = meter.Float64Histogram("toolpool.tool.duration",
		metric.WithDescription("Duration of tool calls"),
		metric.WithUnit("ms"))
	if err != nil {
		logging.Warn("Telemetry", "Failed to create tool duration histogram: %v", err)
	}

	BringUpAttemptCounter, err = meter.Int64Counter("toolpool.bringup.attempts",
		metric.WithDescription("Number of session initialisation attempts"),
		metric.WithUnit("1"))
	if err != nil {
		logging.Warn("Telemetry", "Failed to create bring-up counter: %v", err)
	}
}

func getTracer() trace.Tracer {
	if tracer == nil {
		return otel.GetTracerProvider().Tracer(TracerName)
	}
	return tracer
}

// StartBringUpSpan starts a span for one initialisation attempt of a server.
func StartBringUpSpan(ctx context.Context, serverName string, attempt int) (context.Context, trace.Span) {
	return getTracer().Start(ctx, "toolpool.session.initialize",
		trace.WithAttributes(
			attribute.String("toolpool.server.name", serverName),
			attribute.Int("toolpool.attempt", attempt),
		),
		trace.WithSpanKind(trace.SpanKindClient))
}

// StartToolCallSpan starts a span for a routed tool call.
func StartToolCallSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{
		attribute.String("mcp.tool.name", toolName),
	}, attrs...)

	return getTracer().Start(ctx, "mcp.tool.call",
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func outcome(failed bool) string {
	if failed {
		return "error"
	}
	return "success"
}

// RecordToolCall records the count and duration of a tool call. serverName is
// empty when no server offered the tool.
func RecordToolCall(ctx context.Context, serverName, toolName string, duration time.Duration, failed bool) {
	attrs := metric.WithAttributes(
		attribute.String("mcp.tool.name", toolName),
		attribute.String("toolpool.server.name", serverName),
		attribute.String("toolpool.outcome", outcome(failed)),
	)
	if ToolCallCounter != nil {
		ToolCallCounter.Add(ctx, 1, attrs)
	}
	if ToolCallDuration != nil {
		ToolCallDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
}

// RecordBringUpAttempt records the outcome of one initialisation attempt.
func RecordBringUpAttempt(ctx context.Context, serverName string, failed bool) {
	if BringUpAttemptCounter == nil {
		return
	}
	BringUpAttemptCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("toolpool.server.name", serverName),
		attribute.String("toolpool.outcome", outcome(failed)),
	))
}
