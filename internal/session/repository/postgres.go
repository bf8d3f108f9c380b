package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"worklens/aggregator/internal/db"
	"worklens/aggregator/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given store for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// upsertSQL implements the monotonic merge atomically. On conflict only
// extensible fields are updated: segment_end/last_event_at take the later
// value, first_event_at the earlier, event_refs the distinct union (with
// event_count recomputed from that union so repeated references are never
// double-counted), and revision bounds widen. Identity fields and status are
// deliberately absent from the update list.
const upsertSQL = `
INSERT INTO sessions (
	id, mode, attribution_key, project_slug, user_id, device_tag, lane,
	segment_start, segment_end, first_event_at, last_event_at,
	event_refs, event_count, context_rev_min, context_rev_max,
	status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
ON CONFLICT (id) DO UPDATE SET
	segment_end     = GREATEST(sessions.segment_end, EXCLUDED.segment_end),
	first_event_at  = LEAST(sessions.first_event_at, EXCLUDED.first_event_at),
	last_event_at   = GREATEST(sessions.last_event_at, EXCLUDED.last_event_at),
	event_refs      = COALESCE(
		(SELECT jsonb_agg(DISTINCT r) FROM jsonb_array_elements_text(sessions.event_refs || EXCLUDED.event_refs) AS t(r)),
		'[]'::jsonb),
	event_count     = (SELECT count(DISTINCT r) FROM jsonb_array_elements_text(sessions.event_refs || EXCLUDED.event_refs) AS t(r)),
	context_rev_min = LEAST(sessions.context_rev_min, EXCLUDED.context_rev_min),
	context_rev_max = GREATEST(sessions.context_rev_max, EXCLUDED.context_rev_max),
	updated_at      = EXCLUDED.updated_at`

// Upsert inserts or monotonically merges the session aggregate.
func (r *PostgresRepository) Upsert(ctx context.Context, s *domain.Session) error {
	return upsertOne(ctx, r.db, s)
}

// UpsertAll merges the sessions inside one transaction. Any failure rolls the
// whole batch back, so reruns of the same window start from a clean state and
// converge through the idempotent merge.
func (r *PostgresRepository) UpsertAll(ctx context.Context, sessions []*domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session batch: %w", err)
	}
	defer tx.Rollback()

	for _, s := range sessions {
		if err := upsertOne(ctx, tx, s); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsertOne(ctx context.Context, ex db.DBTX, s *domain.Session) error {
	refs := s.EventRefs
	if refs == nil {
		refs = []string{}
	}
	refsJSON, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("marshal event refs: %w", err)
	}
	_, err = ex.ExecContext(ctx, upsertSQL,
		s.ID, s.Mode, s.AttributionKey, s.ProjectSlug, s.UserID, s.DeviceTag, s.Lane,
		s.SegmentStart, s.SegmentEnd, s.FirstEventAt, s.LastEventAt,
		refsJSON, s.EventCount, intPtrToNull(s.ContextRevMin), intPtrToNull(s.ContextRevMax),
		s.Status, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", s.ID, err)
	}
	return nil
}

const getByIDSQL = `
SELECT id, mode, attribution_key, project_slug, user_id, device_tag, lane,
       segment_start, segment_end, first_event_at, last_event_at,
       event_refs, event_count, context_rev_min, context_rev_max,
       status, created_at, updated_at
FROM sessions WHERE id = $1`

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var (
		s        domain.Session
		refsJSON []byte
		revMin   sql.NullInt64
		revMax   sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, getByIDSQL, id).Scan(
		&s.ID, &s.Mode, &s.AttributionKey, &s.ProjectSlug, &s.UserID, &s.DeviceTag, &s.Lane,
		&s.SegmentStart, &s.SegmentEnd, &s.FirstEventAt, &s.LastEventAt,
		&refsJSON, &s.EventCount, &revMin, &revMax,
		&s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(refsJSON) > 0 {
		if err := json.Unmarshal(refsJSON, &s.EventRefs); err != nil {
			return nil, fmt.Errorf("unmarshal event refs: %w", err)
		}
	}
	s.ContextRevMin = nullToIntPtr(revMin)
	s.ContextRevMax = nullToIntPtr(revMax)
	return &s, nil
}

func intPtrToNull(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullToIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
