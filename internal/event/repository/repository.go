package repository

import (
	"context"
	"time"

	"worklens/aggregator/internal/event/domain"
)

// Repository defines read access to the raw activity event store.
// The aggregator never writes here; ingestion belongs to the capture side.
type Repository interface {
	// ListBySourceAndWindow returns events with occurredAt in [start, end)
	// and the given source kind, ordered ascending by occurredAt.
	ListBySourceAndWindow(ctx context.Context, sourceKind string, start, end time.Time) ([]domain.ActivityEvent, error)
}
