package repository

import (
	"context"
	"time"

	"worklens/aggregator/internal/assignment/domain"
)

// Repository defines read access to project assignments.
type Repository interface {
	// FindActiveByTagAndTime returns the assignment covering the given
	// instant for the normalized device tag, or nil if none covers it.
	// When overlapping rows exist the most recently started one is returned.
	// It returns an error only for database failures, not for missing rows.
	FindActiveByTagAndTime(ctx context.Context, deviceTag string, at time.Time) (*domain.Assignment, error)
}
