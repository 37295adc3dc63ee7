package timer

import "github.com/claude/sessiontimer/internal/models"

// State is the current phase of a workout session.
type State string

const (
	StateIdle        State = "idle"
	StatePreparation State = "preparation"
	StateWork        State = "work"
	StateRest        State = "rest"
	StateCompleted   State = "completed"
)

// counting reports whether the phase has a countdown that ticks drive.
func (s State) counting() bool {
	return s == StatePreparation || s == StateWork || s == StateRest
}

// Trigger is an input to the transition table.
type Trigger string

const (
	// TriggerStart leaves idle.
	TriggerStart Trigger = "start"
	// TriggerExpire fires when the remaining time reaches zero or on a manual advance.
	TriggerExpire Trigger = "expire"
)

// Snapshot is a read-only copy of the timer state.
type Snapshot struct {
	SessionID      int64            `json:"session_id"`
	State          State            `json:"state"`
	ExerciseIndex  int              `json:"exercise_index"`
	Set            int              `json:"set"`
	Remaining      int              `json:"remaining"`
	Elapsed        int              `json:"elapsed"`
	Running        bool             `json:"running"`
	TotalExercises int              `json:"total_exercises"`
	Exercise       *models.Exercise `json:"exercise,omitempty"`
}

// Event describes one transition through the table.
type Event struct {
	Trigger  Trigger  `json:"trigger"`
	From     State    `json:"from"`
	To       State    `json:"to"`
	Snapshot Snapshot `json:"snapshot"`
}

// Summary aggregates a session for the completion screen.
type Summary struct {
	SessionID      int64 `json:"session_id"`
	Exercises      int   `json:"exercises"`
	Sets           int   `json:"sets"`
	ElapsedSeconds int   `json:"elapsed_seconds"`
	Minutes        int   `json:"minutes"`
	Completed      bool  `json:"completed"`
}
