// Package producer defines the interface for shipping cycle outcomes to Kafka.
package producer

import (
	"context"

	"worklens/aggregator/internal/telemetry/domain"
)

// Producer emits cycle outcomes. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single outcome. Implementations may block briefly; call from a goroutine if needed.
	// Returns an error only on write failure; callers typically log and ignore.
	Emit(ctx context.Context, outcome *domain.CycleOutcome) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
