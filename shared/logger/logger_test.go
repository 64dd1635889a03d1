package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New(Config{Level: "warn", Env: "prod"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestInfo_AddsTraceFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	Info(ctx, l, "traced")
	Info(context.Background(), l, "untraced")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, traceID.String(), entries[0].ContextMap()["trace_id"])
	assert.Equal(t, spanID.String(), entries[0].ContextMap()["span_id"])
	assert.NotContains(t, entries[1].ContextMap(), "trace_id")
}
