package rollup

import (
	"context"
	"fmt"
	"time"

	sessiondomain "worklens/aggregator/internal/session/domain"
)

// SessionStore is the slice of the session repository the writer depends on.
// UpsertAll must apply every session or none.
type SessionStore interface {
	UpsertAll(ctx context.Context, sessions []*sessiondomain.Session) error
}

// Writer materializes segments as session rows. Session identity is derived
// deterministically from (mode, attribution key, segment bounds), so
// reprocessing a window converges on the same rows instead of duplicating
// them.
type Writer struct {
	store SessionStore
	now   func() time.Time
}

func NewWriter(store SessionStore) *Writer {
	return &Writer{store: store, now: time.Now}
}

// Apply converts each segment to a session and hands the batch to the store
// in one shot. It returns the number of sessions written; zero segments is a
// no-op, not an error.
func (w *Writer) Apply(ctx context.Context, segments []Segment) (int, error) {
	if len(segments) == 0 {
		return 0, nil
	}
	at := w.now().UTC()
	sessions := make([]*sessiondomain.Session, len(segments))
	for i := range segments {
		sessions[i] = toSession(&segments[i], at)
	}
	if err := w.store.UpsertAll(ctx, sessions); err != nil {
		return 0, fmt.Errorf("write sessions: %w", err)
	}
	return len(sessions), nil
}

func toSession(seg *Segment, at time.Time) *sessiondomain.Session {
	refs := make([]string, len(seg.Events))
	for i := range seg.Events {
		refs[i] = seg.Events[i].ID
	}

	s := &sessiondomain.Session{
		ID:             sessiondomain.IdempotencyKey(string(seg.Mode), seg.AttributionKey, seg.Start, seg.End),
		Mode:           string(seg.Mode),
		AttributionKey: seg.AttributionKey,
		ProjectSlug:    seg.ProjectSlug,
		UserID:         seg.UserID,
		DeviceTag:      seg.DeviceTag,
		Lane:           seg.Lane,
		SegmentStart:   seg.Start,
		SegmentEnd:     seg.End,
		FirstEventAt:   seg.Events[0].OccurredAt,
		LastEventAt:    seg.Events[len(seg.Events)-1].OccurredAt,
		EventRefs:      refs,
		EventCount:     len(refs),
		Status:         sessiondomain.StatusActive,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	if len(seg.ContextRevisions) > 0 {
		lo, hi := seg.ContextRevisions[0], seg.ContextRevisions[0]
		for _, r := range seg.ContextRevisions[1:] {
			if r < lo {
				lo = r
			}
			if r > hi {
				hi = r
			}
		}
		s.ContextRevMin, s.ContextRevMax = &lo, &hi
	}
	return s
}
