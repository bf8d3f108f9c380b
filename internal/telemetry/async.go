package telemetry

import (
	"context"
	"log"
	"time"

	"worklens/aggregator/internal/telemetry/domain"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the scheduler stops before
// shutting down OTel providers and the Kafka writer, so in-flight async emits
// have time to complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not blocked.
// Use from the scheduler for fire-and-forget, best-effort telemetry; errors are logged.
//
// emitter and outcome may be nil; EmitAsync returns immediately without starting a goroutine.
// The goroutine uses context.Background() with emitTimeout so cycle cancellation does not abort an in-flight emit.
func EmitAsync(emitter EventEmitter, ctx context.Context, outcome *domain.CycleOutcome) {
	if emitter == nil || outcome == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, outcome); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}
