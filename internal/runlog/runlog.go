// Package runlog keeps a local SQLite history of updater runs.
package runlog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run outcomes.
const (
	OutcomeRunning = "running"
	OutcomeOK      = "ok"
	OutcomeError   = "error"
)

// Run is one updater execution.
type Run struct {
	ID             int64
	RunID          string
	StartedAt      time.Time
	FinishedAt     *time.Time
	Outcome        string
	Status         string
	Reason         string
	ProclamationID string
	ParseStrategy  string
	Changed        bool
	Archived       bool
	ErrorText      string
	DurationMs     int64
	InputTokens    int
	OutputTokens   int
}

// NewRun allocates a run with a fresh id. Nothing is stored until
// RecordStart.
func NewRun() *Run {
	return &Run{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Outcome:   OutcomeRunning,
	}
}

// Service wraps the run history database.
type Service struct {
	db *sql.DB
}

func Open(dbPath string) (*Service, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open run log db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply run log schema: %w", err)
	}
	// Best-effort migrations for dbs created before token tracking
	// (no-op when the columns exist).
	_, _ = db.Exec(`ALTER TABLE runs ADD COLUMN input_tokens INTEGER NOT NULL DEFAULT 0`)
	_, _ = db.Exec(`ALTER TABLE runs ADD COLUMN output_tokens INTEGER NOT NULL DEFAULT 0`)
	return &Service{db: db}, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}

// RecordStart stores the run in its initial running state.
func (s *Service) RecordStart(run *Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, started_at, outcome) VALUES (?, ?, ?)`,
		run.RunID, run.StartedAt, run.Outcome,
	)
	return err
}

// RecordFinish stamps the end time and writes the final state.
func (s *Service) RecordFinish(run *Run) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.DurationMs = now.Sub(run.StartedAt).Milliseconds()
	_, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, outcome = ?, status = ?, reason = ?,
			proclamation_id = ?, parse_strategy = ?, changed = ?, archived = ?,
			error_text = ?, duration_ms = ?, input_tokens = ?, output_tokens = ?
		WHERE run_id = ?`,
		run.FinishedAt, run.Outcome, run.Status, run.Reason,
		run.ProclamationID, run.ParseStrategy, run.Changed, run.Archived,
		run.ErrorText, run.DurationMs, run.InputTokens, run.OutputTokens,
		run.RunID,
	)
	return err
}

// Recent returns the newest runs, most recent first.
func (s *Service) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, run_id, started_at, finished_at, outcome,
			COALESCE(status,''), COALESCE(reason,''), COALESCE(proclamation_id,''),
			COALESCE(parse_strategy,''), changed, archived, COALESCE(error_text,''),
			duration_ms, COALESCE(input_tokens,0), COALESCE(output_tokens,0)
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		err := rows.Scan(
			&r.ID,
			&r.RunID,
			&r.StartedAt,
			&finished,
			&r.Outcome,
			&r.Status,
			&r.Reason,
			&r.ProclamationID,
			&r.ParseStrategy,
			&r.Changed,
			&r.Archived,
			&r.ErrorText,
			&r.DurationMs,
			&r.InputTokens,
			&r.OutputTokens,
		)
		if err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LastRun returns the most recent run, or nil when none exist.
func (s *Service) LastRun() (*Run, error) {
	runs, err := s.Recent(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}
