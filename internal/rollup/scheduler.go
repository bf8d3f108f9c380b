package rollup

import (
	"context"
	"log"
	"sync"
	"time"

	"worklens/aggregator/internal/telemetry"
	telemetrydomain "worklens/aggregator/internal/telemetry/domain"
)

// State is the scheduler's lifecycle state. Cycles never overlap: the
// scheduler is a single loop that is either waiting for a boundary or running
// the cycle for one.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// CycleRunner runs the work of a single cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context, window Window, mode Mode) (CycleResult, error)
}

// Scheduler fires a cycle at every quarter-hour boundary. A cycle that
// overruns its boundary delays the next cycle rather than running beside it;
// if it overruns far enough that several boundaries pass, only the most
// recent one is processed and the missed quarters are skipped. Cycle failures
// are logged, reported as telemetry, and absorbed; only context cancellation
// stops the loop.
type Scheduler struct {
	clock   Clock
	runner  CycleRunner
	emitter telemetry.EventEmitter
	metrics *telemetry.CycleMetrics

	mu    sync.Mutex
	state State
	last  time.Time
}

// NewScheduler wires a scheduler. emitter and metrics may be nil; outcomes
// are then only logged.
func NewScheduler(clock Clock, runner CycleRunner, emitter telemetry.EventEmitter, metrics *telemetry.CycleMetrics) *Scheduler {
	return &Scheduler{
		clock:   clock,
		runner:  runner,
		emitter: emitter,
		metrics: metrics,
		state:   StateIdle,
	}
}

// State reports whether the scheduler is idle or mid-cycle.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run blocks until ctx is cancelled. The boundary current at startup counts
// as already handled, so the first cycle fires at the first boundary after
// Run is called.
func (s *Scheduler) Run(ctx context.Context) error {
	s.setLast(s.clock.Now().UTC().Truncate(BoundaryInterval))
	for {
		now := s.clock.Now()
		if boundary := now.UTC().Truncate(BoundaryInterval); boundary.After(s.lastBoundary()) {
			s.runOnce(ctx, boundary)
			s.setLast(boundary)
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(UntilNextBoundary(now)):
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, boundary time.Time) {
	s.setState(StateRunning)
	defer s.setState(StateIdle)

	window := WindowEndingAt(boundary)
	mode := ModeFor(boundary)
	started := s.clock.Now()
	res, err := s.runner.RunCycle(ctx, window, mode)
	elapsed := s.clock.Now().Sub(started)

	outcome := outcomeFor(res, elapsed, err, s.clock.Now())
	s.metrics.Record(ctx, outcome)
	telemetry.EmitAsync(s.emitter, ctx, outcome)

	if err != nil {
		log.Printf("scheduler: %s cycle %s failed after %s: %v", mode, window, elapsed.Round(time.Millisecond), err)
		return
	}
	log.Printf("scheduler: %s cycle %s: %d events, %d segments, %d sessions in %s",
		mode, window, res.Events, res.Segments, res.Sessions, elapsed.Round(time.Millisecond))
}

func outcomeFor(res CycleResult, elapsed time.Duration, err error, at time.Time) *telemetrydomain.CycleOutcome {
	out := &telemetrydomain.CycleOutcome{
		Mode:            string(res.Mode),
		WindowStart:     res.Window.Start.UTC(),
		WindowEnd:       res.Window.End.UTC(),
		EventCount:      res.Events,
		SegmentCount:    res.Segments,
		SessionsWritten: res.Sessions,
		DurationMs:      elapsed.Milliseconds(),
		Status:          telemetrydomain.StatusCompleted,
		CreatedAt:       at.UTC(),
	}
	if err != nil {
		out.Status = telemetrydomain.StatusFailed
		out.Error = err.Error()
	}
	return out
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Scheduler) lastBoundary() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) setLast(t time.Time) {
	s.mu.Lock()
	s.last = t
	s.mu.Unlock()
}
