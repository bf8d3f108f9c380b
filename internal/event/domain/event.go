package domain

import "time"

// SourceKind values carried by raw activity events. They share the value
// space with the rollup processing modes: each tick processes exactly one
// kind.
const (
	SourceInternal = "internal"
	SourceExternal = "external"
)

// ActivityEvent is one raw, timestamped activity record captured from a
// device. The aggregator treats the event store as read-only: events are
// immutable once fetched and no column is ever updated by this service.
type ActivityEvent struct {
	ID         string
	DeviceTag  string
	SourceKind string
	Content    string
	// LaneHint is an optional lane tag supplied at ingest (e.g. by the
	// capturing agent). Used only when attribution yields no context mode.
	LaneHint   string
	OccurredAt time.Time
	IngestedAt time.Time
}
