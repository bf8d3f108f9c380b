package otel

import (
	"context"
	"encoding/json"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"worklens/aggregator/internal/telemetry"
	"worklens/aggregator/internal/telemetry/domain"
)

// NewEventEmitter returns an EventEmitter that sends cycle outcomes as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("worklens.telemetry")}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.CycleOutcome) error { return nil }

// recordLogger is the slice of otellog.Logger the emitter uses.
type recordLogger interface {
	Emit(ctx context.Context, rec otellog.Record)
}

type otelEmitter struct {
	logger recordLogger
}

// Emit converts the outcome to an OTel log record and emits it. Best-effort; errors are logged.
func (e *otelEmitter) Emit(ctx context.Context, outcome *domain.CycleOutcome) error {
	if outcome == nil {
		return nil
	}
	rec := otellog.Record{}
	if !outcome.CreatedAt.IsZero() {
		rec.SetTimestamp(outcome.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	if body, err := json.Marshal(outcome); err == nil {
		rec.SetBody(otellog.BytesValue(body))
	}
	rec.AddAttributes(
		otellog.String("mode", outcome.Mode),
		otellog.String("status", outcome.Status),
		otellog.String("window_start", outcome.WindowStart.UTC().Format(time.RFC3339)),
		otellog.String("window_end", outcome.WindowEnd.UTC().Format(time.RFC3339)),
		otellog.Int64("event_count", int64(outcome.EventCount)),
		otellog.Int64("segment_count", int64(outcome.SegmentCount)),
		otellog.Int64("sessions_written", int64(outcome.SessionsWritten)),
		otellog.Int64("duration_ms", outcome.DurationMs),
	)
	if outcome.Error != "" {
		rec.AddAttributes(otellog.String("error", outcome.Error))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
