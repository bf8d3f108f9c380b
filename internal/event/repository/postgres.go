package repository

import (
	"context"
	"time"

	"worklens/aggregator/internal/db"
	"worklens/aggregator/internal/event/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an event repository reading from the given store.
func NewPostgresRepository(dbtx db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: dbtx}
}

const listBySourceAndWindowSQL = `
SELECT id, device_tag, source_kind, content, COALESCE(lane_hint, ''), occurred_at, ingested_at
FROM activity_events
WHERE occurred_at >= $1 AND occurred_at < $2 AND source_kind = $3
ORDER BY occurred_at ASC`

// ListBySourceAndWindow returns events in [start, end) with the given source
// kind, ascending by occurred_at. The ordering is part of the segmentation
// contract: the segmenter does not re-sort.
func (r *PostgresRepository) ListBySourceAndWindow(ctx context.Context, sourceKind string, start, end time.Time) ([]domain.ActivityEvent, error) {
	rows, err := r.db.QueryContext(ctx, listBySourceAndWindowSQL, start, end, sourceKind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActivityEvent
	for rows.Next() {
		var e domain.ActivityEvent
		if err := rows.Scan(&e.ID, &e.DeviceTag, &e.SourceKind, &e.Content, &e.LaneHint, &e.OccurredAt, &e.IngestedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
