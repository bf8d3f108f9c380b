package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StatusActive is the only status value the aggregator ever writes. Lifecycle
// transitions beyond "active" belong to downstream consumers; the merge path
// deliberately leaves the column untouched.
const StatusActive = "active"

// sessionNamespace is the fixed UUIDv5 namespace for session idempotency
// keys. Changing it would re-key every aggregate, so it never changes.
var sessionNamespace = uuid.MustParse("b1f3a6e0-52c4-4c2e-b5a9-4d0de0a8c9f1")

// IdempotencyKey derives the stable session identity for a segment. The same
// (mode, attributionKey, start, end) always yields the same key, across runs
// and hosts; this is what makes re-applying a cycle a merge instead of a
// duplicate insert.
func IdempotencyKey(mode, attributionKey string, segmentStart, segmentEnd time.Time) string {
	name := fmt.Sprintf("%s|%s|%d|%d",
		mode, attributionKey, segmentStart.UTC().UnixMilli(), segmentEnd.UTC().UnixMilli())
	return uuid.NewSHA1(sessionNamespace, []byte(name)).String()
}

// Session is one persisted aggregate: a maximal contiguous run of events in a
// window+mode sharing one attribution key. Re-writing the same identity merges
// monotonically (later end, union of refs, min/max revisions) and never
// shrinks any field.
type Session struct {
	ID             string
	Mode           string
	AttributionKey string
	ProjectSlug    string
	UserID         string
	DeviceTag      string
	Lane           string
	SegmentStart   time.Time
	SegmentEnd     time.Time
	FirstEventAt   time.Time
	LastEventAt    time.Time
	EventRefs      []string
	EventCount     int
	ContextRevMin  *int
	ContextRevMax  *int
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
