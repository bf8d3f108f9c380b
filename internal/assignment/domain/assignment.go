package domain

import "time"

// Assignment maps a device tag to a project/user context for a half-open
// time interval [StartedAt, EndedAt). EndedAt nil means still active.
// At most one assignment is authoritative for a tag at any instant; when
// rows overlap the most recently started one wins.
type Assignment struct {
	ID          string
	DeviceTag   string
	ProjectID   string
	ProjectSlug string
	ProjectName string
	UserID      string
	// ContextMode is the lane tag for sessions attributed through this
	// assignment (e.g. "focus", "review").
	ContextMode string
	// Revision increments every time the assignment row is edited. Sessions
	// keep the min/max revision seen so downstream can detect stale merges.
	Revision  int
	StartedAt time.Time
	EndedAt   *time.Time
}

// Covers reports whether the assignment interval contains t.
func (a *Assignment) Covers(t time.Time) bool {
	if a == nil || t.Before(a.StartedAt) {
		return false
	}
	return a.EndedAt == nil || t.Before(*a.EndedAt)
}
