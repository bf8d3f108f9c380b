package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"worklens/aggregator/internal/assignment/domain"
	"worklens/aggregator/internal/db"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an assignment repository reading from the given store.
func NewPostgresRepository(dbtx db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: dbtx}
}

const findActiveByTagAndTimeSQL = `
SELECT id, device_tag, project_id, project_slug, project_name, user_id,
       context_mode, revision, started_at, ended_at
FROM project_assignments
WHERE device_tag = $1
  AND started_at <= $2
  AND (ended_at IS NULL OR ended_at > $2)
ORDER BY started_at DESC
LIMIT 1`

// FindActiveByTagAndTime returns the covering assignment for the tag at the
// given instant, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) FindActiveByTagAndTime(ctx context.Context, deviceTag string, at time.Time) (*domain.Assignment, error) {
	var (
		a       domain.Assignment
		endedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, findActiveByTagAndTimeSQL, deviceTag, at).Scan(
		&a.ID, &a.DeviceTag, &a.ProjectID, &a.ProjectSlug, &a.ProjectName,
		&a.UserID, &a.ContextMode, &a.Revision, &a.StartedAt, &endedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if endedAt.Valid {
		a.EndedAt = &endedAt.Time
	}
	return &a, nil
}
