package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"worklens/aggregator/internal/telemetry/domain"
)

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if em == nil {
		t.Fatal("NewEventEmitter(nil) returned nil")
	}
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("noop Emit(ctx, nil): %v", err)
	}
	if err := em.Emit(context.Background(), &domain.CycleOutcome{Mode: "internal"}); err != nil {
		t.Errorf("noop Emit(ctx, outcome): %v", err)
	}
}

func TestEmit_NilOutcome_ReturnsNil(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(ctx, nil): %v", err)
	}
}

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec otellog.Record
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
}

func TestEmit_AttributeAndBodyMapping(t *testing.T) {
	capture := &recordCapture{}
	em := &otelEmitter{logger: capture}

	created := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	outcome := &domain.CycleOutcome{
		Mode:            "internal",
		WindowStart:     created.Add(-30 * time.Minute),
		WindowEnd:       created,
		EventCount:      7,
		SegmentCount:    3,
		SessionsWritten: 3,
		DurationMs:      120,
		Status:          domain.StatusCompleted,
		CreatedAt:       created,
	}
	if err := em.Emit(context.Background(), outcome); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := capture.rec

	if !rec.Timestamp().Equal(created) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), created)
	}
	if rec.Body().Empty() {
		t.Error("body should carry the serialized outcome")
	}

	strAttrs := make(map[string]string)
	intAttrs := make(map[string]int64)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		switch kv.Value.Kind() {
		case otellog.KindInt64:
			intAttrs[kv.Key] = kv.Value.AsInt64()
		default:
			strAttrs[kv.Key] = kv.Value.AsString()
		}
		return true
	})
	wantStr := map[string]string{
		"mode":         "internal",
		"status":       "completed",
		"window_start": "2026-03-02T10:00:00Z",
		"window_end":   "2026-03-02T10:30:00Z",
	}
	for k, v := range wantStr {
		if strAttrs[k] != v {
			t.Errorf("attr %q = %q, want %q", k, strAttrs[k], v)
		}
	}
	wantInt := map[string]int64{
		"event_count":      7,
		"segment_count":    3,
		"sessions_written": 3,
		"duration_ms":      120,
	}
	for k, v := range wantInt {
		if intAttrs[k] != v {
			t.Errorf("attr %q = %d, want %d", k, intAttrs[k], v)
		}
	}
	if _, ok := strAttrs["error"]; ok {
		t.Error("error attribute should be absent for a completed cycle")
	}
}

func TestEmit_FailedCycle_CarriesError(t *testing.T) {
	capture := &recordCapture{}
	em := &otelEmitter{logger: capture}

	outcome := &domain.CycleOutcome{
		Mode:      "external",
		Status:    domain.StatusFailed,
		Error:     "fetch events: connection refused",
		CreatedAt: time.Now().UTC(),
	}
	if err := em.Emit(context.Background(), outcome); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	var gotErr string
	capture.rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		if kv.Key == "error" {
			gotErr = kv.Value.AsString()
		}
		return true
	})
	if gotErr != outcome.Error {
		t.Errorf("error attr = %q, want %q", gotErr, outcome.Error)
	}
}
