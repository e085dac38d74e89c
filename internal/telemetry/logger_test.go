package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestContextHandler(t *testing.T) {
	t.Run("Success_AddsTraceIDs", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "info")

		tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

		ctx, span := tp.Tracer("test").Start(context.Background(), "process_webhook")
		logger.InfoContext(ctx, "payment confirmed", slog.String("reference", "SPEI1ABC"))
		span.End()

		record := decodeLine(t, &buf)
		assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), record["span_id"])
		assert.Equal(t, "SPEI1ABC", record["reference"])
	})

	t.Run("Success_NoSpan", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "info")

		logger.InfoContext(context.Background(), "started")

		record := decodeLine(t, &buf)
		assert.NotContains(t, record, "trace_id")
	})

	t.Run("Success_WithAttrsKeepsDecoration", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "info").With(slog.String("component", "dispatcher"))

		tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

		ctx, span := tp.Tracer("test").Start(context.Background(), "replay")
		logger.InfoContext(ctx, "replaying")
		span.End()

		record := decodeLine(t, &buf)
		assert.Equal(t, "dispatcher", record["component"])
		assert.Contains(t, record, "trace_id")
	})

	t.Run("Success_ContextAttrs", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "info")

		ctx := WithLogAttrs(context.Background(), slog.String("request_id", "req-1"))
		ctx = WithLogAttrs(ctx, slog.String("webhook_event_id", "evt-1"))
		logger.InfoContext(ctx, "webhook accepted")

		record := decodeLine(t, &buf)
		assert.Equal(t, "req-1", record["request_id"])
		assert.Equal(t, "evt-1", record["webhook_event_id"])
	})

	t.Run("Success_LevelFiltering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "warn")

		logger.Info("dropped")
		assert.Zero(t, buf.Len())
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
