package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run triggers.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// Run is one recorded analysis run.
type Run struct {
	ID               string     `json:"id"`
	Trigger          string     `json:"trigger"`
	Status           string     `json:"status"`
	TradesScanned    int        `json:"trades_scanned"`
	AlertsEmitted    int        `json:"alerts_emitted"`
	AlertsSuppressed int        `json:"alerts_suppressed"`
	Error            string     `json:"error,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// RunRepository records analysis runs in the state database.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start records a new run and returns its ID.
func (r *RunRepository) Start(trigger string) (string, error) {
	id := uuid.New().String()

	_, err := r.db.Exec(`
		INSERT INTO runs (id, trigger_type, status) VALUES (?, ?, ?)`,
		id, trigger, RunStatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to record run start: %w", err)
	}

	return id, nil
}

// Finish marks a run completed with its counters.
func (r *RunRepository) Finish(id string, scanned, emitted, suppressed int) error {
	_, err := r.db.Exec(`
		UPDATE runs
		SET status = ?, trades_scanned = ?, alerts_emitted = ?, alerts_suppressed = ?,
		    finished_at = datetime('now')
		WHERE id = ?`,
		RunStatusCompleted, scanned, emitted, suppressed, id)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	return nil
}

// Fail marks a run failed with its error message.
func (r *RunRepository) Fail(id string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}

	_, err := r.db.Exec(`
		UPDATE runs SET status = ?, error = ?, finished_at = datetime('now')
		WHERE id = ?`,
		RunStatusFailed, msg, id)
	if err != nil {
		return fmt.Errorf("failed to record run failure: %w", err)
	}
	return nil
}

// GetRecent returns the most recent runs, newest first.
func (r *RunRepository) GetRecent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, trigger_type, status, trades_scanned, alerts_emitted, alerts_suppressed,
		       error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var startedAt string
		var finishedAt sql.NullString
		err := rows.Scan(&run.ID, &run.Trigger, &run.Status, &run.TradesScanned,
			&run.AlertsEmitted, &run.AlertsSuppressed, &run.Error, &startedAt, &finishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt, _ = time.Parse("2006-01-02 15:04:05", startedAt)
		if finishedAt.Valid {
			t, _ := time.Parse("2006-01-02 15:04:05", finishedAt.String)
			run.FinishedAt = &t
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}
