// Package runner drives a timer.Machine from a single goroutine: a periodic
// ticker plus a command channel that serialises every adapter request.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/sessiontimer/internal/timer"
)

// ErrStopped is returned by commands issued after Run has returned.
var ErrStopped = errors.New("runner stopped")

// DefaultInterval is one timer unit.
const DefaultInterval = time.Second

// Ticker is the periodic scheduler. *time.Ticker is adapted by NewTicker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
	Reset(d time.Duration)
}

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time   { return s.t.C }
func (s stdTicker) Stop()                 { s.t.Stop() }
func (s stdTicker) Reset(d time.Duration) { s.t.Reset(d) }

// NewTicker returns a stopped-on-demand wall-clock ticker.
func NewTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// Config contains runtime options for a Runner.
type Config struct {
	Interval  time.Duration
	NewTicker func(time.Duration) Ticker
}

// Update is published to subscribers after every tick or command that changed state.
type Update struct {
	Snapshot   timer.Snapshot `json:"snapshot"`
	Transition *timer.Event   `json:"transition,omitempty"`
	Summary    *timer.Summary `json:"summary,omitempty"`
	Hidden     bool           `json:"hidden"`
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdPause
	cmdResume
	cmdAdvance
	cmdSnapshot
	cmdSummary
	cmdVisibility
)

type command struct {
	kind   commandKind
	hidden bool
	reply  chan result
}

type result struct {
	snapshot timer.Snapshot
	summary  timer.Summary
}

// Runner owns one Machine. Only the Run goroutine touches it.
type Runner struct {
	machine  *timer.Machine
	cfg      Config
	log      *slog.Logger
	cmds     chan command
	done     chan struct{}
	stopOnce sync.Once

	mu   sync.Mutex
	subs []chan Update

	// Owned by the Run goroutine.
	ticker    Ticker
	scheduled bool
	hidden    bool
}

// New creates a Runner for machine. Call Run to start processing.
func New(machine *timer.Machine, cfg Config, log *slog.Logger) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewTicker
	}
	return &Runner{
		machine: machine,
		cfg:     cfg,
		log:     log,
		cmds:    make(chan command),
		done:    make(chan struct{}),
	}
}

// Subscribe registers an observer. Updates are dropped when the buffer is full.
// The channel is closed when Run returns.
func (r *Runner) Subscribe(buffer int) <-chan Update {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Update, buffer)
	r.mu.Lock()
	select {
	case <-r.done:
		close(ch)
	default:
		r.subs = append(r.subs, ch)
	}
	r.mu.Unlock()
	return ch
}

// Run processes ticks and commands until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.ticker = r.cfg.NewTicker(r.cfg.Interval)
	r.ticker.Stop()
	defer r.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.ticker.C():
			r.tick()
		case cmd := <-r.cmds:
			cmd.reply <- r.handle(cmd)
		}
	}
}

func (r *Runner) shutdown() {
	r.ticker.Stop()
	r.stopOnce.Do(func() {
		r.mu.Lock()
		close(r.done)
		subs := r.subs
		r.subs = nil
		r.mu.Unlock()
		for _, ch := range subs {
			close(ch)
		}
	})
}

func (r *Runner) tick() {
	ev, transitioned := r.machine.Tick()
	if transitioned {
		r.publishTransition(ev)
	} else {
		r.publish(Update{Snapshot: r.machine.Snapshot()})
	}
	r.syncScheduler()
}

func (r *Runner) handle(cmd command) result {
	switch cmd.kind {
	case cmdStart:
		if ev, ok := r.machine.Start(); ok {
			r.log.Info("workout started")
			// A hidden timer waits for an explicit resume.
			if r.hidden && r.machine.Pause() {
				r.log.Info("timer paused while hidden")
				ev.Snapshot = r.machine.Snapshot()
			}
			r.publishTransition(ev)
		}
	case cmdAdvance:
		if ev, ok := r.machine.Advance(); ok {
			r.publishTransition(ev)
		}
	case cmdPause:
		if r.machine.Pause() {
			r.log.Info("timer paused")
			r.publish(Update{Snapshot: r.machine.Snapshot()})
		}
	case cmdResume:
		if r.machine.Resume() {
			r.log.Info("timer resumed")
			r.publish(Update{Snapshot: r.machine.Snapshot()})
		}
	case cmdVisibility:
		r.setHidden(cmd.hidden)
	}
	r.syncScheduler()
	return result{snapshot: r.machine.Snapshot(), summary: r.machine.Summary()}
}

// setHidden pauses a running timer when hidden. Becoming visible again does
// not resume it.
func (r *Runner) setHidden(hidden bool) {
	if r.hidden == hidden {
		return
	}
	r.hidden = hidden
	r.log.Info("visibility changed", "hidden", hidden)
	if hidden && r.machine.Pause() {
		r.log.Info("timer paused while hidden")
	}
	r.publish(Update{Snapshot: r.machine.Snapshot()})
}

// syncScheduler keeps the ticker running only while the countdown is live.
func (r *Runner) syncScheduler() {
	running := r.machine.Snapshot().Running
	switch {
	case running && !r.scheduled:
		r.ticker.Reset(r.cfg.Interval)
		r.scheduled = true
	case !running && r.scheduled:
		r.ticker.Stop()
		r.scheduled = false
	}
}

func (r *Runner) publishTransition(ev timer.Event) {
	attrs := []any{"from", ev.From, "to", ev.To}
	if e := ev.Snapshot.Exercise; e != nil {
		attrs = append(attrs, "exercise", e.Name, "set", ev.Snapshot.Set)
	}
	r.log.Info("phase changed", attrs...)

	u := Update{Snapshot: ev.Snapshot, Transition: &ev}
	if ev.To == timer.StateCompleted {
		sum := r.machine.Summary()
		u.Summary = &sum
		r.log.Info("workout completed",
			"exercises", sum.Exercises, "sets", sum.Sets, "elapsed_seconds", sum.ElapsedSeconds)
	}
	r.publish(u)
}

func (r *Runner) publish(u Update) {
	u.Hidden = r.hidden
	r.mu.Lock()
	subs := append([]chan Update(nil), r.subs...)
	r.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- u:
		default:
		}
	}
}

func (r *Runner) do(ctx context.Context, cmd command) (result, error) {
	cmd.reply = make(chan result, 1)
	select {
	case r.cmds <- cmd:
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-r.done:
		return result{}, ErrStopped
	}
	select {
	case res := <-cmd.reply:
		return res, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (r *Runner) snapshotCmd(ctx context.Context, kind commandKind) (timer.Snapshot, error) {
	res, err := r.do(ctx, command{kind: kind})
	return res.snapshot, err
}

// Start begins the workout. No-op unless idle.
func (r *Runner) Start(ctx context.Context) (timer.Snapshot, error) {
	return r.snapshotCmd(ctx, cmdStart)
}

// Pause freezes the countdown.
func (r *Runner) Pause(ctx context.Context) (timer.Snapshot, error) {
	return r.snapshotCmd(ctx, cmdPause)
}

// Resume continues a paused countdown.
func (r *Runner) Resume(ctx context.Context) (timer.Snapshot, error) {
	return r.snapshotCmd(ctx, cmdResume)
}

// Advance skips to the next phase.
func (r *Runner) Advance(ctx context.Context) (timer.Snapshot, error) {
	return r.snapshotCmd(ctx, cmdAdvance)
}

// Snapshot returns the current state.
func (r *Runner) Snapshot(ctx context.Context) (timer.Snapshot, error) {
	return r.snapshotCmd(ctx, cmdSnapshot)
}

// Summary returns the session summary.
func (r *Runner) Summary(ctx context.Context) (timer.Summary, error) {
	res, err := r.do(ctx, command{kind: cmdSummary})
	return res.summary, err
}

// SetHidden reports that the user interface went to the background or came back.
func (r *Runner) SetHidden(ctx context.Context, hidden bool) (timer.Snapshot, error) {
	res, err := r.do(ctx, command{kind: cmdVisibility, hidden: hidden})
	return res.snapshot, err
}
