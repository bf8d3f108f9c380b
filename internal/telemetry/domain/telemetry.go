package domain

import "time"

// Cycle outcome statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// CycleOutcome records what a single rollup cycle did. It is the unit the
// telemetry pipeline ships: OTel log records, Kafka messages, and Loki lines
// all carry this shape.
type CycleOutcome struct {
	Mode            string    `json:"mode"`
	WindowStart     time.Time `json:"windowStart"`
	WindowEnd       time.Time `json:"windowEnd"`
	EventCount      int       `json:"eventCount"`
	SegmentCount    int       `json:"segmentCount"`
	SessionsWritten int       `json:"sessionsWritten"`
	DurationMs      int64     `json:"durationMs"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
