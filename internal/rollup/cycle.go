package rollup

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	eventdomain "worklens/aggregator/internal/event/domain"
)

// EventSource is the slice of the event repository a cycle reads from. The
// returned slice must be ordered by occurrence time ascending.
type EventSource interface {
	ListBySourceAndWindow(ctx context.Context, sourceKind string, start, end time.Time) ([]eventdomain.ActivityEvent, error)
}

// CycleResult summarizes one cycle for logs and telemetry.
type CycleResult struct {
	Window   Window
	Mode     Mode
	Events   int
	Segments int
	Sessions int
}

// Runner executes one full cycle: fetch the window's events for the cycle's
// mode, segment them by attribution, and merge the segments into the session
// store. Event lookups run on the shared pool; the session writes land in one
// transaction inside the store.
type Runner struct {
	events    EventSource
	segmenter *Segmenter
	writer    *Writer
	tracer    trace.Tracer
}

func NewRunner(events EventSource, segmenter *Segmenter, writer *Writer) *Runner {
	return &Runner{
		events:    events,
		segmenter: segmenter,
		writer:    writer,
		tracer:    otel.Tracer("worklens.rollup"),
	}
}

// RunCycle processes the window in the given mode. An empty window is a
// successful no-op: no segments, no writes. Any failure leaves the store
// untouched; the next cycle over the same data converges to the same rows.
func (r *Runner) RunCycle(ctx context.Context, window Window, mode Mode) (CycleResult, error) {
	res := CycleResult{Window: window, Mode: mode}
	ctx, span := r.tracer.Start(ctx, "rollup.cycle", trace.WithAttributes(
		attribute.String("rollup.mode", string(mode)),
		attribute.String("rollup.window_start", window.Start.UTC().Format(time.RFC3339)),
		attribute.String("rollup.window_end", window.End.UTC().Format(time.RFC3339)),
	))
	defer span.End()

	events, err := r.events.ListBySourceAndWindow(ctx, string(mode), window.Start, window.End)
	if err != nil {
		return res, r.fail(span, fmt.Errorf("fetch events: %w", err))
	}
	res.Events = len(events)
	if len(events) == 0 {
		span.SetStatus(codes.Ok, "")
		return res, nil
	}

	segments, err := r.segmenter.Segment(ctx, mode, events)
	if err != nil {
		return res, r.fail(span, err)
	}
	res.Segments = len(segments)

	written, err := r.writer.Apply(ctx, segments)
	if err != nil {
		return res, r.fail(span, err)
	}
	res.Sessions = written

	span.SetAttributes(
		attribute.Int("rollup.events", res.Events),
		attribute.Int("rollup.segments", res.Segments),
		attribute.Int("rollup.sessions", res.Sessions),
	)
	span.SetStatus(codes.Ok, "")
	return res, nil
}

func (r *Runner) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
