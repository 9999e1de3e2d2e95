package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const syncScopeName = "github.com/nhle/engineer-metrics/sync"

// syncMetrics instruments entity syncs.
type syncMetrics struct {
	tracer    trace.Tracer
	records   metric.Int64Counter
	failures  metric.Int64Counter
	fallbacks metric.Int64Counter
	duration  metric.Float64Histogram
}

// newSyncMetrics builds the instruments from m. If any instrument cannot be
// created the error is logged and every instrument falls back to a no-op.
func newSyncMetrics(m metric.Meter, tracer trace.Tracer, logger *slog.Logger) *syncMetrics {
	records, recordsErr := m.Int64Counter("metricsync.sync.records",
		metric.WithDescription("Records written by entity syncs"),
	)
	failures, failuresErr := m.Int64Counter("metricsync.sync.failures",
		metric.WithDescription("Entity syncs that ended in failure after any fallback"),
	)
	fallbacks, fallbacksErr := m.Int64Counter("metricsync.sync.fallbacks",
		metric.WithDescription("Incremental syncs retried in full mode"),
	)
	duration, durationErr := m.Float64Histogram("metricsync.sync.duration",
		metric.WithDescription("Handler attempt duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	if err := errors.Join(recordsErr, failuresErr, fallbacksErr, durationErr); err != nil {
		logger.Warn("creating sync metric instruments failed, metrics disabled", "error", err)
		nm := noop.NewMeterProvider().Meter(syncScopeName)
		records, _ = nm.Int64Counter("metricsync.sync.records")
		failures, _ = nm.Int64Counter("metricsync.sync.failures")
		fallbacks, _ = nm.Int64Counter("metricsync.sync.fallbacks")
		duration, _ = nm.Float64Histogram("metricsync.sync.duration")
	}

	return &syncMetrics{
		tracer:    tracer,
		records:   records,
		failures:  failures,
		fallbacks: fallbacks,
		duration:  duration,
	}
}

// start opens the span of one handler invocation.
func (m *syncMetrics) start(ctx context.Context, e EntityType, mode Mode) (context.Context, trace.Span, time.Time) {
	ctx, span := m.tracer.Start(ctx, "sync."+string(e),
		trace.WithAttributes(
			attribute.String("sync.entity", string(e)),
			attribute.String("sync.mode", string(mode)),
		),
	)
	return ctx, span, time.Now()
}

// done closes the span and records the outcome of one handler attempt.
func (m *syncMetrics) done(
	ctx context.Context,
	span trace.Span,
	start time.Time,
	e EntityType,
	mode Mode,
	res HandlerResult,
	err error,
) {
	attrs := metric.WithAttributes(
		attribute.String("sync.entity", string(e)),
		attribute.String("sync.mode", string(mode)),
	)
	m.duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	span.SetAttributes(
		attribute.Int("sync.fetched", res.Fetched),
		attribute.Int("sync.upserted", res.Upserted),
		attribute.Int("sync.created", res.Created),
		attribute.Int("sync.skipped", res.Skipped),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		m.records.Add(ctx, int64(res.Upserted), attrs)
	}
	span.End()
}

// failure counts an entity sync that failed for good.
func (m *syncMetrics) failure(ctx context.Context, e EntityType, mode Mode) {
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sync.entity", string(e)),
		attribute.String("sync.mode", string(mode)),
	))
}

func (m *syncMetrics) fallback(ctx context.Context, e EntityType) {
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("sync.entity", string(e))))
}
