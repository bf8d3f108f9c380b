package repository

import (
	"context"

	"worklens/aggregator/internal/session/domain"
)

// Repository defines persistence for session aggregates.
type Repository interface {
	// Upsert inserts the session or merges it into the existing row with the
	// same idempotency key. The merge is monotonic: timestamps only extend,
	// event references union, counts never double-count repeated references,
	// and the status column is never modified on conflict.
	Upsert(ctx context.Context, s *domain.Session) error
	// UpsertAll applies the sessions inside a single transaction, so a cycle's
	// writes land together or not at all.
	UpsertAll(ctx context.Context, sessions []*domain.Session) error
	// GetByID returns the session for id, or nil if not found.
	// It returns an error only for database failures, not for missing rows.
	GetByID(ctx context.Context, id string) (*domain.Session, error)
}
