// Package journal keeps a local SQLite record of every progress report the
// timer tried to deliver, successful or not.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/claude/sessiontimer/internal/models"
	"github.com/claude/sessiontimer/internal/progress"
)

// Kind is the report type.
type Kind string

const (
	KindExercise Kind = "exercise"
	KindComplete Kind = "complete"
)

// Result is how a delivery attempt ended.
type Result string

const (
	ResultDelivered Result = "delivered"
	ResultRejected  Result = "rejected" // backend answered with a non-success status
	ResultFailed    Result = "failed"   // transport or decoding error
)

// Entry is one delivery attempt.
type Entry struct {
	ID            int64     `json:"id"`
	Kind          Kind      `json:"kind"`
	SessionID     int64     `json:"session_id"`
	ExerciseID    int64     `json:"exercise_id,omitempty"`
	CompletedSets int       `json:"completed_sets,omitempty"`
	Result        Result    `json:"result"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Journal stores entries in dir/journal.db.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the SQLite journal at dir/journal.db.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "journal.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}
	// Reports are written from several goroutines; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS report_attempts (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		kind           TEXT NOT NULL,
		session_id     INTEGER NOT NULL,
		exercise_id    INTEGER NOT NULL DEFAULT 0,
		completed_sets INTEGER NOT NULL DEFAULT 0,
		result         TEXT NOT NULL,
		error          TEXT NOT NULL DEFAULT '',
		created_at     INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal table: %w", err)
	}

	return &Journal{db: db, now: time.Now}, nil
}

// Record appends an entry. CreatedAt is filled in when zero.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO report_attempts (kind, session_id, exercise_id, completed_sets, result, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Kind, e.SessionID, e.ExerciseID, e.CompletedSets, e.Result, e.Error, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("recording report attempt: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, session_id, exercise_id, completed_sets, result, error, created_at
		 FROM report_attempts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying report attempts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Kind, &e.SessionID, &e.ExerciseID, &e.CompletedSets, &e.Result, &e.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning report attempt: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Wrap returns a Backend that records every call to next.
func (j *Journal) Wrap(next progress.Backend) progress.Backend {
	return &recordingBackend{next: next, journal: j}
}

type recordingBackend struct {
	next    progress.Backend
	journal *Journal
}

func (b *recordingBackend) SaveExercise(ctx context.Context, sessionID, exerciseID int64, completedSets int) (*models.StatusResponse, error) {
	resp, err := b.next.SaveExercise(ctx, sessionID, exerciseID, completedSets)
	b.record(ctx, Entry{
		Kind:          KindExercise,
		SessionID:     sessionID,
		ExerciseID:    exerciseID,
		CompletedSets: completedSets,
	}, err)
	return resp, err
}

func (b *recordingBackend) CompleteSession(ctx context.Context, sessionID int64) (*models.StatusResponse, error) {
	resp, err := b.next.CompleteSession(ctx, sessionID)
	b.record(ctx, Entry{Kind: KindComplete, SessionID: sessionID}, err)
	return resp, err
}

// record never fails the report; a broken journal only loses history.
func (b *recordingBackend) record(ctx context.Context, e Entry, err error) {
	switch {
	case err == nil:
		e.Result = ResultDelivered
	case errors.Is(err, progress.ErrNotSuccess):
		e.Result = ResultRejected
		e.Error = err.Error()
	default:
		e.Result = ResultFailed
		e.Error = err.Error()
	}
	// The report context may already be done when the backend timed out.
	_ = b.journal.Record(context.WithoutCancel(ctx), e)
}
