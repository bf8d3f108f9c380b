package rollup

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"worklens/aggregator/internal/assignment"
	assignmentdomain "worklens/aggregator/internal/assignment/domain"
	eventdomain "worklens/aggregator/internal/event/domain"
)

// UnassignedKey is the attribution key for events whose device had no
// assignment covering the event's timestamp. Unassigned runs segment like any
// other key, so gaps in coverage surface as their own sessions instead of
// silently stretching a neighbour.
const UnassignedKey = "unassigned"

// ContextResolver reports the assignment covering a device at an instant, or
// nil when none does.
type ContextResolver interface {
	Resolve(ctx context.Context, deviceTag string, at time.Time) (*assignmentdomain.Assignment, error)
}

// Segment is a maximal run of consecutive events sharing one attribution key.
// Start is the first event's timestamp; End is the timestamp of the event
// that opened the next segment, or the last event's timestamp for the final
// segment of a window. Descriptive fields come from the segment's opening
// event and its resolution.
type Segment struct {
	AttributionKey string
	ProjectSlug    string
	UserID         string
	DeviceTag      string
	Mode           Mode
	Lane           string
	Start          time.Time
	End            time.Time
	Events         []eventdomain.ActivityEvent
	// ContextRevisions holds the assignment revision seen for each resolved
	// event, in event order. Unassigned events contribute nothing.
	ContextRevisions []int
}

// Segmenter partitions a window's events into contiguous attribution
// segments. Resolution runs concurrently; segmentation itself is a single
// ordered pass and never re-sorts its input.
type Segmenter struct {
	resolver ContextResolver
	workers  int
}

// NewSegmenter returns a Segmenter resolving with at most workers concurrent
// lookups. A workers value below 1 falls back to serial resolution.
func NewSegmenter(resolver ContextResolver, workers int) *Segmenter {
	if workers < 1 {
		workers = 1
	}
	return &Segmenter{resolver: resolver, workers: workers}
}

// Segment resolves every event against its own timestamp and folds the
// ordered result into maximal runs per attribution key. Events must already
// be sorted by occurrence time. A resolution failure fails the whole call; a
// device without coverage is not a failure, it attributes to UnassignedKey.
func (s *Segmenter) Segment(ctx context.Context, mode Mode, events []eventdomain.ActivityEvent) ([]Segment, error) {
	if len(events) == 0 {
		return nil, nil
	}

	resolved, err := s.resolveAll(ctx, events)
	if err != nil {
		return nil, err
	}

	var segments []Segment
	var cur *Segment
	for i := range events {
		ev := &events[i]
		key := UnassignedKey
		if resolved[i] != nil {
			key = resolved[i].ProjectID
		}

		if cur == nil || cur.AttributionKey != key {
			if cur != nil {
				// The arriving event closes the previous run; adjacent
				// segments share the boundary instant.
				cur.End = ev.OccurredAt
				segments = append(segments, *cur)
			}
			cur = openSegment(key, mode, ev, resolved[i])
		}
		cur.Events = append(cur.Events, *ev)
		cur.End = ev.OccurredAt
		if resolved[i] != nil {
			cur.ContextRevisions = append(cur.ContextRevisions, resolved[i].Revision)
		}
	}
	segments = append(segments, *cur)
	return segments, nil
}

// resolveAll looks up each event's assignment concurrently while preserving
// event order in the result.
func (s *Segmenter) resolveAll(ctx context.Context, events []eventdomain.ActivityEvent) ([]*assignmentdomain.Assignment, error) {
	resolved := make([]*assignmentdomain.Assignment, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range events {
		ev := events[i]
		g.Go(func() error {
			a, err := s.resolver.Resolve(gctx, ev.DeviceTag, ev.OccurredAt)
			if err != nil {
				return fmt.Errorf("resolve context for event %s: %w", ev.ID, err)
			}
			resolved[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

func openSegment(key string, mode Mode, ev *eventdomain.ActivityEvent, a *assignmentdomain.Assignment) *Segment {
	seg := &Segment{
		AttributionKey: key,
		DeviceTag:      assignment.NormalizeDeviceTag(ev.DeviceTag),
		Mode:           mode,
		Lane:           laneFor(a, ev, mode),
		Start:          ev.OccurredAt,
		End:            ev.OccurredAt,
	}
	if a != nil {
		seg.ProjectSlug = a.ProjectSlug
		seg.UserID = a.UserID
	}
	return seg
}

// laneFor picks the segment's lane: the resolved context's mode when
// present, else the event's own hint, else the window mode.
func laneFor(a *assignmentdomain.Assignment, ev *eventdomain.ActivityEvent, mode Mode) string {
	if a != nil && a.ContextMode != "" {
		return a.ContextMode
	}
	if ev.LaneHint != "" {
		return ev.LaneHint
	}
	return string(mode)
}
