package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claude/sessiontimer/internal/models"
	"github.com/claude/sessiontimer/internal/timer"
)

// fakeTicker is driven by the test instead of the wall clock.
type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	running bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
}

func (f *fakeTicker) Reset(time.Duration) {
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()
}

func (f *fakeTicker) isRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

type countingReporter struct {
	mu        sync.Mutex
	progress  int
	completed int
}

func (c *countingReporter) ReportExerciseProgress(int64, int64, int) {
	c.mu.Lock()
	c.progress++
	c.mu.Unlock()
}

func (c *countingReporter) ReportSessionComplete(int64) {
	c.mu.Lock()
	c.completed++
	c.mu.Unlock()
}

type harness struct {
	runner   *Runner
	ticker   *fakeTicker
	reporter *countingReporter
	cancel   context.CancelFunc
	stopped  chan error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	session := models.Session{
		ID: 42,
		Exercises: []models.Exercise{
			{ID: 7, Name: "Push-ups", Sets: 2, Reps: "10-12", RestTime: 10},
			{ID: 8, Name: "Plank", Sets: 1, Reps: "30 seconds", RestTime: 10},
		},
	}
	rep := &countingReporter{}
	ft := &fakeTicker{ch: make(chan time.Time)}
	m := timer.New(session, timer.Config{PreparationSeconds: 10, WorkSeconds: 30}, rep)
	r := New(m, Config{
		Interval:  time.Second,
		NewTicker: func(time.Duration) Ticker { return ft },
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{runner: r, ticker: ft, reporter: rep, cancel: cancel, stopped: make(chan error, 1)}
	go func() { h.stopped <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.stopped
	})
	return h
}

func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.ticker.ch <- time.Time{}
	}
}

// TestRunnerScenario drives the reference session to completion through the command loop.
func TestRunnerScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	snap, err := h.runner.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != timer.StatePreparation || !snap.Running {
		t.Fatalf("after Start: %+v", snap)
	}
	if !h.ticker.isRunning() {
		t.Error("scheduler should run once the workout starts")
	}

	h.tick(120)

	sum, err := h.runner.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Completed || sum.ElapsedSeconds != 120 {
		t.Errorf("summary = %+v, want completed after 120s", sum)
	}
	if h.ticker.isRunning() {
		t.Error("scheduler should stop after completion")
	}
	h.reporter.mu.Lock()
	defer h.reporter.mu.Unlock()
	if h.reporter.progress != 3 || h.reporter.completed != 1 {
		t.Errorf("reports = %d progress, %d completed; want 3 and 1", h.reporter.progress, h.reporter.completed)
	}
}

// TestHiddenPausesUntilExplicitResume verifies backgrounding pauses the timer
// and coming back does not resume it on its own.
func TestHiddenPausesUntilExplicitResume(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.runner.Start(ctx); err != nil {
		t.Fatal(err)
	}
	h.tick(3)

	snap, err := h.runner.SetHidden(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Running {
		t.Error("hidden timer should be paused")
	}
	if h.ticker.isRunning() {
		t.Error("scheduler should stop while hidden")
	}

	h.tick(5)
	snap, _ = h.runner.SetHidden(ctx, false)
	if snap.Running || snap.Remaining != 7 {
		t.Errorf("after visible: %+v, want paused with 7 remaining", snap)
	}

	snap, _ = h.runner.Resume(ctx)
	if !snap.Running || !h.ticker.isRunning() {
		t.Errorf("after Resume: %+v, scheduler running=%v", snap, h.ticker.isRunning())
	}
	h.tick(1)
	if snap, _ = h.runner.Snapshot(ctx); snap.Remaining != 6 {
		t.Errorf("remaining = %d, want 6", snap.Remaining)
	}
}

// TestStartWhileHiddenWaitsForResume verifies a workout started in the
// background does not count down until it is explicitly resumed.
func TestStartWhileHiddenWaitsForResume(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.runner.SetHidden(ctx, true); err != nil {
		t.Fatal(err)
	}
	snap, err := h.runner.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != timer.StatePreparation || snap.Running || snap.Remaining != 10 {
		t.Errorf("after hidden Start: %+v, want paused preparation with 10 remaining", snap)
	}
	if h.ticker.isRunning() {
		t.Error("scheduler should not run while hidden")
	}

	snap, _ = h.runner.SetHidden(ctx, false)
	if snap.Running {
		t.Error("becoming visible should not resume the timer")
	}

	snap, _ = h.runner.Resume(ctx)
	if !snap.Running || !h.ticker.isRunning() {
		t.Errorf("after Resume: %+v, scheduler running=%v", snap, h.ticker.isRunning())
	}
	h.tick(3)
	if snap, _ = h.runner.Snapshot(ctx); snap.Remaining != 7 || snap.Elapsed != 3 {
		t.Errorf("after 3 ticks: remaining=%d elapsed=%d, want 7 and 3", snap.Remaining, snap.Elapsed)
	}
}

// TestSubscribersSeeTransitions verifies observers get each phase change.
func TestSubscribersSeeTransitions(t *testing.T) {
	h := newHarness(t)
	updates := h.runner.Subscribe(16)
	ctx := context.Background()

	h.runner.Start(ctx)
	h.runner.Advance(ctx)
	h.runner.Pause(ctx)

	var got []timer.State
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case u := <-updates:
			if u.Transition != nil {
				got = append(got, u.Transition.To)
			}
		case <-timeout:
			t.Fatalf("timed out, transitions so far: %v", got)
		}
	}
	if got[0] != timer.StatePreparation || got[1] != timer.StateWork {
		t.Errorf("transitions = %v, want [preparation work]", got)
	}
}

// TestCommandsAfterStop verifies commands fail with ErrStopped and
// subscriptions close once Run returns.
func TestCommandsAfterStop(t *testing.T) {
	h := newHarness(t)
	updates := h.runner.Subscribe(1)

	h.cancel()
	if err := <-h.stopped; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	h.stopped <- nil // let Cleanup drain

	if _, err := h.runner.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after stop = %v, want ErrStopped", err)
	}
	if _, ok := <-updates; ok {
		t.Error("subscription should be closed")
	}
	if _, ok := <-h.runner.Subscribe(1); ok {
		t.Error("late subscription should be closed immediately")
	}
}
