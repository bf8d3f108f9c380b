// Package rollup turns raw activity events into attributed session
// aggregates: it aligns processing to fixed wall-clock windows, alternates
// between the two source modes every quarter hour, partitions each window's
// events into contiguous segments by resolved attribution, and merges each
// segment into the session store exactly once per segment identity.
package rollup

import (
	"fmt"
	"time"
)

const (
	// BoundaryInterval is the tick cadence; every boundary falls on a
	// quarter-hour mark.
	BoundaryInterval = 15 * time.Minute
	// WindowLength is the span of events each cycle reads.
	WindowLength = 30 * time.Minute
)

// Mode selects which source kind a cycle processes. The two modes strictly
// alternate by quarter-hour parity, so each kind is drained on a fixed
// 30-minute cadence offset by 15 minutes from the other.
type Mode string

const (
	ModeInternal Mode = "internal"
	ModeExternal Mode = "external"
)

// Window is a half-open interval [Start, End); End always falls on a
// quarter-hour boundary.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s,%s)", w.Start.UTC().Format("15:04"), w.End.UTC().Format("15:04"))
}

// WindowEndingAt returns the window whose end is the given boundary.
func WindowEndingAt(boundary time.Time) Window {
	boundary = boundary.UTC()
	return Window{Start: boundary.Add(-WindowLength), End: boundary}
}

// AlignToWindowFloor returns the window whose end is the most recent
// quarter-hour boundary at or before now. Events ON the boundary belong to
// the next window (left inclusive, right exclusive).
func AlignToWindowFloor(now time.Time) Window {
	return WindowEndingAt(now.UTC().Truncate(BoundaryInterval))
}

// ModeFor maps an aligned boundary to its processing mode: quarter-hour
// indexes 0 and 2 within the hour select internal, 1 and 3 external. This
// alternates strictly every 15 minutes regardless of the hour.
func ModeFor(boundary time.Time) Mode {
	quarter := boundary.UTC().Minute() / 15
	if quarter%2 == 0 {
		return ModeInternal
	}
	return ModeExternal
}

// UntilNextBoundary returns the time remaining until the next quarter-hour
// tick. The result is strictly positive: exactly on a boundary it reports a
// full interval, so a cycle that finishes on the dot waits for the next tick
// instead of spinning.
func UntilNextBoundary(now time.Time) time.Duration {
	now = now.UTC()
	next := now.Truncate(BoundaryInterval).Add(BoundaryInterval)
	return next.Sub(now)
}
