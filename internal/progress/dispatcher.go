package progress

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/sessiontimer/internal/models"
	"github.com/claude/sessiontimer/internal/notify"
	"github.com/claude/sessiontimer/internal/timer"
)

// DefaultReportTimeout bounds a single report.
const DefaultReportTimeout = 10 * time.Second

// Dispatcher turns the timer's fire-and-forget reports into background
// requests. Each report is tried once; failures are logged and shown as a
// notification, never retried, and never block the caller.
type Dispatcher struct {
	backend  Backend
	notifier notify.Notifier
	conn     *Connectivity
	log      *slog.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

// Compile-time check: Dispatcher satisfies timer.Reporter.
var _ timer.Reporter = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher. A non-positive timeout uses DefaultReportTimeout.
func NewDispatcher(backend Backend, notifier notify.Notifier, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultReportTimeout
	}
	return &Dispatcher{
		backend:  backend,
		notifier: notifier,
		conn:     NewConnectivity(notifier, log),
		log:      log,
		timeout:  timeout,
	}
}

func (d *Dispatcher) ReportExerciseProgress(sessionID, exerciseID int64, completedSets int) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		_, err := d.backend.SaveExercise(ctx, sessionID, exerciseID, completedSets)
		d.conn.Observe(err)
		if err != nil {
			d.fail("save exercise progress failed", err,
				"session_id", sessionID, "exercise_id", exerciseID, "completed_sets", completedSets)
			d.notifier.Notify(notify.LevelError, "Could not save exercise progress")
			return
		}
		d.log.Info("exercise progress saved",
			"session_id", sessionID, "exercise_id", exerciseID, "completed_sets", completedSets)
	}()
}

func (d *Dispatcher) ReportSessionComplete(sessionID int64) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		_, err := d.backend.CompleteSession(ctx, sessionID)
		d.conn.Observe(err)
		if err != nil {
			d.fail("save session completion failed", err, "session_id", sessionID)
			d.notifier.Notify(notify.LevelError, "Could not save workout")
			return
		}
		d.log.Info("session completion saved", "session_id", sessionID)
		d.notifier.Notify(notify.LevelSuccess, "Workout saved!")
	}()
}

// Wait blocks until every in-flight report has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// fail logs application-level rejections as warnings and transport errors as errors.
func (d *Dispatcher) fail(msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if errors.Is(err, ErrNotSuccess) {
		d.log.Warn(msg, attrs...)
		return
	}
	d.log.Error(msg, attrs...)
}

// DryRun is a Backend that only logs what it would send.
type DryRun struct {
	Log *slog.Logger
}

var _ Backend = DryRun{}

func (d DryRun) SaveExercise(_ context.Context, sessionID, exerciseID int64, completedSets int) (*models.StatusResponse, error) {
	d.Log.Info("dry-run: would save exercise",
		"session_id", sessionID, "exercise_id", exerciseID, "completed_sets", completedSets)
	return &models.StatusResponse{Status: models.StatusSuccess}, nil
}

func (d DryRun) CompleteSession(_ context.Context, sessionID int64) (*models.StatusResponse, error) {
	d.Log.Info("dry-run: would complete session", "session_id", sessionID)
	return &models.StatusResponse{Status: models.StatusSuccess}, nil
}
