package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/engineer-metrics/internal/model"
)

func TestInit_DisabledInstallsNoop(t *testing.T) {
	require.NoError(t, Init(context.Background(), model.TelemetryConfig{}, "metricsync", "test"))
	assert.Empty(t, shutdownFns)

	_, span := Tracer("").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	counter, err := Meter("").Int64Counter("noop.counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)
}

func TestInit_EnabledRegistersShutdown(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, Init(ctx, model.TelemetryConfig{Enabled: true}, "metricsync", "test"))
	assert.Len(t, shutdownFns, 2)

	_, span := Tracer("").Start(ctx, "real")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	Shutdown(ctx)
	assert.Empty(t, shutdownFns)
	require.NoError(t, Init(ctx, model.TelemetryConfig{}, "metricsync", "test"))
}
