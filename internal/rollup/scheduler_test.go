package rollup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	ticks chan time.Time
	waits []time.Duration
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start, ticks: make(chan time.Time)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	return c.ticks
}

// tick moves the clock to t and unblocks the scheduler's wait. The send
// blocks until the scheduler is actually waiting, which keeps the test and
// the loop in lockstep.
func (c *fakeClock) tick(t time.Time) {
	c.Set(t)
	c.ticks <- t
}

func (c *fakeClock) firstWait() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.waits) == 0 {
		return 0
	}
	return c.waits[0]
}

type cycleCall struct {
	window Window
	mode   Mode
}

type recordingRunner struct {
	mu    sync.Mutex
	calls []cycleCall
	err   error
	done  chan struct{}
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{done: make(chan struct{}, 16)}
}

func (r *recordingRunner) RunCycle(_ context.Context, w Window, m Mode) (CycleResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cycleCall{window: w, mode: m})
	err := r.err
	r.mu.Unlock()
	r.done <- struct{}{}
	return CycleResult{Window: w, Mode: m}, err
}

func (r *recordingRunner) snapshot() []cycleCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cycleCall(nil), r.calls...)
}

func waitCycle(t *testing.T, r *recordingRunner) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a cycle to run")
	}
}

func startScheduler(t *testing.T, clock *fakeClock, runner *recordingRunner) (s *Scheduler, cancel func(), wait func() error) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	s = NewScheduler(clock, runner, nil, nil)
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	// Run captures its start time before parking in its first wait; the clock
	// must not move until then, or tick's Set races the startup read and the
	// starting boundary is taken from the advanced time. firstWait is zero
	// only before the first After call (UntilNextBoundary is strictly
	// positive), so a nonzero value means the scheduler is parked.
	deadline := time.Now().Add(2 * time.Second)
	for clock.firstWait() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("scheduler never started waiting")
		}
		time.Sleep(time.Millisecond)
	}
	return s, cancelCtx, func() error {
		select {
		case err := <-errCh:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler did not stop")
			return nil
		}
	}
}

func TestScheduler_FirstCycleAtFirstBoundaryAfterStart(t *testing.T) {
	clock := newFakeClock(at(10, 7, 0))
	runner := newRecordingRunner()
	_, cancel, wait := startScheduler(t, clock, runner)

	clock.tick(at(10, 15, 0))
	waitCycle(t, runner)

	calls := runner.snapshot()
	if len(calls) != 1 {
		t.Fatalf("got %d cycles, want 1", len(calls))
	}
	got := calls[0]
	if got.mode != ModeExternal {
		t.Errorf("mode = %q, want external at a :15 boundary", got.mode)
	}
	if !got.window.Start.Equal(at(9, 45, 0)) || !got.window.End.Equal(at(10, 15, 0)) {
		t.Errorf("window = %v, want [09:45,10:15)", got.window)
	}
	if d := clock.firstWait(); d != 8*time.Minute {
		t.Errorf("initial wait = %v, want 8m until the next boundary", d)
	}

	cancel()
	if err := wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

func TestScheduler_ModesAlternateAcrossBoundaries(t *testing.T) {
	clock := newFakeClock(at(10, 14, 0))
	runner := newRecordingRunner()
	_, cancel, wait := startScheduler(t, clock, runner)

	clock.tick(at(10, 15, 0))
	waitCycle(t, runner)
	clock.tick(at(10, 30, 0))
	waitCycle(t, runner)
	clock.tick(at(10, 45, 0))
	waitCycle(t, runner)

	calls := runner.snapshot()
	if len(calls) != 3 {
		t.Fatalf("got %d cycles, want 3", len(calls))
	}
	wantModes := []Mode{ModeExternal, ModeInternal, ModeExternal}
	for i, c := range calls {
		if c.mode != wantModes[i] {
			t.Errorf("cycle %d mode = %q, want %q", i, c.mode, wantModes[i])
		}
	}
	// Windows of one mode tile edge to edge.
	if !calls[0].window.End.Equal(calls[2].window.Start) {
		t.Errorf("external windows %v and %v should share an edge", calls[0].window, calls[2].window)
	}

	cancel()
	_ = wait()
}

func TestScheduler_SkipsToLatestBoundaryAfterStall(t *testing.T) {
	clock := newFakeClock(at(10, 7, 0))
	runner := newRecordingRunner()
	_, cancel, wait := startScheduler(t, clock, runner)

	// The loop was stalled well past several boundaries; on wake only the
	// most recent one is processed.
	clock.tick(at(10, 52, 0))
	waitCycle(t, runner)

	calls := runner.snapshot()
	if len(calls) != 1 {
		t.Fatalf("got %d cycles, want 1 (missed quarters are skipped)", len(calls))
	}
	got := calls[0]
	if !got.window.End.Equal(at(10, 45, 0)) {
		t.Errorf("window end = %v, want the latest boundary 10:45", got.window.End)
	}
	if got.mode != ModeExternal {
		t.Errorf("mode = %q, want external for the 10:45 boundary", got.mode)
	}

	cancel()
	_ = wait()
}

func TestScheduler_CycleFailureIsAbsorbed(t *testing.T) {
	clock := newFakeClock(at(10, 7, 0))
	runner := newRecordingRunner()
	runner.err = errors.New("database unavailable")
	_, cancel, wait := startScheduler(t, clock, runner)

	clock.tick(at(10, 15, 0))
	waitCycle(t, runner)
	clock.tick(at(10, 30, 0))
	waitCycle(t, runner)

	if calls := runner.snapshot(); len(calls) != 2 {
		t.Fatalf("got %d cycles, want 2: failures must not stop the loop", len(calls))
	}

	cancel()
	if err := wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled after absorbing cycle failures", err)
	}
}

func TestScheduler_CancelWhileIdle(t *testing.T) {
	clock := newFakeClock(at(10, 7, 0))
	runner := newRecordingRunner()
	_, cancel, wait := startScheduler(t, clock, runner)

	cancel()
	if err := wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
	if calls := runner.snapshot(); len(calls) != 0 {
		t.Errorf("no boundary passed, but %d cycles ran", len(calls))
	}
}

func TestScheduler_StateReturnsToIdleAfterCycle(t *testing.T) {
	clock := newFakeClock(at(10, 7, 0))
	runner := newRecordingRunner()
	s, cancel, wait := startScheduler(t, clock, runner)

	if st := s.State(); st != StateIdle {
		t.Errorf("scheduler should start idle, got %q", st)
	}

	clock.tick(at(10, 15, 0))
	waitCycle(t, runner)

	deadline := time.Now().Add(2 * time.Second)
	for s.State() != StateIdle && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if st := s.State(); st != StateIdle {
		t.Errorf("state after cycle = %q, want idle", st)
	}

	cancel()
	_ = wait()
}
