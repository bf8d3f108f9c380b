// Package telemetry carries cycle outcomes to the configured sinks.
package telemetry

import (
	"context"
	"errors"

	"worklens/aggregator/internal/telemetry/domain"
)

// EventEmitter emits cycle outcomes (e.g. to OTel Logs or Kafka).
// Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, outcome *domain.CycleOutcome) error
}

// Multi fans one outcome out to several emitters. Every emitter is attempted;
// errors are joined so one slow or failing sink never hides the others.
func Multi(emitters ...EventEmitter) EventEmitter {
	out := make([]EventEmitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return multiEmitter(out)
}

type multiEmitter []EventEmitter

func (m multiEmitter) Emit(ctx context.Context, outcome *domain.CycleOutcome) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, outcome); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
