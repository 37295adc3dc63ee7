// Package timer implements the workout session state machine:
// idle → preparation → work → rest → (work | completed).
//
// A Machine is not safe for concurrent use. It is meant to be owned by a
// single goroutine (see package runner) that serialises every command.
package timer

import (
	"github.com/claude/sessiontimer/internal/models"
)

// Defaults used by the web timer.
const (
	DefaultPreparationSeconds = 10
	DefaultWorkSeconds        = 30
)

// Config holds phase durations in ticks (one tick is one second in production).
// Rest durations come from each exercise.
type Config struct {
	PreparationSeconds int
	WorkSeconds        int
}

func (c Config) withDefaults() Config {
	if c.PreparationSeconds <= 0 {
		c.PreparationSeconds = DefaultPreparationSeconds
	}
	if c.WorkSeconds <= 0 {
		c.WorkSeconds = DefaultWorkSeconds
	}
	return c
}

// Machine is the session timer.
type Machine struct {
	session  models.Session
	cfg      Config
	reporter Reporter

	state     State
	index     int
	set       int
	remaining int
	elapsed   int
	running   bool

	completionReported bool
}

// New creates a Machine in the idle state. The session must already be valid
// (see models.Session.Validate); a nil reporter discards reports.
func New(session models.Session, cfg Config, reporter Reporter) *Machine {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Machine{
		session:  session,
		cfg:      cfg.withDefaults(),
		reporter: reporter,
		state:    StateIdle,
	}
}

// Start leaves idle for the preparation phase. It does nothing in any other state.
func (m *Machine) Start() (Event, bool) {
	return m.fire(TriggerStart)
}

// Tick advances the countdown by one unit and fires the phase transition when
// it reaches zero. Ticks are ignored while paused, idle, or completed.
func (m *Machine) Tick() (Event, bool) {
	if !m.running || !m.state.counting() {
		return Event{}, false
	}
	if m.remaining > 0 {
		m.remaining--
	}
	m.elapsed++
	if m.remaining > 0 {
		return Event{}, false
	}
	return m.fire(TriggerExpire)
}

// Advance ends the current phase now, exactly as if its countdown had run out.
// Skipped seconds are not added to the elapsed total. A paused timer stays paused.
func (m *Machine) Advance() (Event, bool) {
	if !m.state.counting() {
		return Event{}, false
	}
	return m.fire(TriggerExpire)
}

// Pause stops ticks from having any effect. It reports whether anything changed.
func (m *Machine) Pause() bool {
	if !m.state.counting() || !m.running {
		return false
	}
	m.running = false
	return true
}

// Resume undoes Pause.
func (m *Machine) Resume() bool {
	if !m.state.counting() || m.running {
		return false
	}
	m.running = true
	return true
}

// State returns the current phase.
func (m *Machine) State() State {
	return m.state
}

// Snapshot returns a copy of the timer state.
func (m *Machine) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:      m.session.ID,
		State:          m.state,
		ExerciseIndex:  m.index,
		Set:            m.set,
		Remaining:      m.remaining,
		Elapsed:        m.elapsed,
		Running:        m.running,
		TotalExercises: len(m.session.Exercises),
	}
	if m.state == StateWork || m.state == StateRest {
		e := m.session.Exercises[m.index]
		snap.Exercise = &e
	}
	return snap
}

// Summary aggregates the session. Completed is false until the final set ends.
func (m *Machine) Summary() Summary {
	return Summary{
		SessionID:      m.session.ID,
		Exercises:      len(m.session.Exercises),
		Sets:           m.session.TotalSets(),
		ElapsedSeconds: m.elapsed,
		Minutes:        m.elapsed / 60,
		Completed:      m.state == StateCompleted,
	}
}
