package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"worklens/aggregator/internal/telemetry/domain"
)

// CycleMetrics records per-cycle instruments on the global MeterProvider.
// With no OTLP endpoint configured the global provider is a no-op, so
// recording is always safe.
type CycleMetrics struct {
	cycles   metric.Int64Counter
	events   metric.Int64Counter
	sessions metric.Int64Counter
	duration metric.Float64Histogram
}

// NewCycleMetrics creates the cycle instruments. Call after the global
// MeterProvider is set.
func NewCycleMetrics() (*CycleMetrics, error) {
	meter := otel.Meter("worklens.rollup")

	cycles, err := meter.Int64Counter("rollup.cycles",
		metric.WithDescription("Rollup cycles by mode and status."))
	if err != nil {
		return nil, err
	}
	events, err := meter.Int64Counter("rollup.events.processed",
		metric.WithDescription("Activity events read by rollup cycles."))
	if err != nil {
		return nil, err
	}
	sessions, err := meter.Int64Counter("rollup.sessions.written",
		metric.WithDescription("Session aggregates upserted by rollup cycles."))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("rollup.cycle.duration",
		metric.WithDescription("Wall time of a rollup cycle."),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &CycleMetrics{cycles: cycles, events: events, sessions: sessions, duration: duration}, nil
}

// Record adds one outcome to the instruments. Safe on a nil receiver and a
// nil outcome.
func (m *CycleMetrics) Record(ctx context.Context, outcome *domain.CycleOutcome) {
	if m == nil || outcome == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("mode", outcome.Mode),
		attribute.String("status", outcome.Status),
	)
	m.cycles.Add(ctx, 1, attrs)
	m.events.Add(ctx, int64(outcome.EventCount), attrs)
	m.sessions.Add(ctx, int64(outcome.SessionsWritten), attrs)
	m.duration.Record(ctx, float64(outcome.DurationMs), attrs)
}
