// Package state persists finished execution results in SQLite, giving
// the CLI a queryable run history.
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/taskweave/taskweave/pkg/models"
)

// DB wraps an SQLite connection holding the run history.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// RunSummary is one row of the history listing.
type RunSummary struct {
	TaskID         string
	Description    string
	Success        bool
	CompletedSteps int
	FailedSteps    int
	Duration       time.Duration
	RecordedAt     time.Time
}

// Open opens (and migrates) the history database at the given path,
// creating parent directories as needed. WAL mode is enabled for
// concurrent reads.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS task_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			success INTEGER NOT NULL,
			completed_steps INTEGER NOT NULL,
			failed_steps INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			errors TEXT NOT NULL DEFAULT '[]',
			recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS step_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES task_runs(id) ON DELETE CASCADE,
			step_id TEXT NOT NULL,
			success INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL,
			retries INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_task_runs_task_id ON task_runs(task_id);
		CREATE INDEX IF NOT EXISTS idx_step_results_run_id ON step_results(run_id);
	`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveResult records a finished execution result and its step results.
// The task description is stored separately via SaveResultForTask; this
// variant stores the result alone.
func (db *DB) SaveResult(result *models.ExecutionResult) error {
	return db.save(result, "")
}

// SaveResultForTask records a result together with its task description.
func (db *DB) SaveResultForTask(result *models.ExecutionResult, description string) error {
	return db.save(result, description)
}

func (db *DB) save(result *models.ExecutionResult, description string) error {
	if result == nil {
		return fmt.Errorf("nil result")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	errorsJSON, err := json.Marshal(result.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO task_runs (task_id, description, success, completed_steps, failed_steps, duration_ms, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.TaskID, description, boolToInt(result.Success),
		result.CompletedSteps, result.FailedSteps,
		result.Duration.Milliseconds(), string(errorsJSON),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert task run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("run id: %w", err)
	}

	for _, step := range result.Steps {
		if _, err := tx.Exec(`
			INSERT INTO step_results (run_id, step_id, success, error, duration_ms, retries)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, step.StepID, boolToInt(step.Success), step.Error,
			step.Duration.Milliseconds(), step.Retries,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert step result %s: %w", step.StepID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(`
		SELECT task_id, description, success, completed_steps, failed_steps, duration_ms, recorded_at
		FROM task_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			run        RunSummary
			success    int
			durationMS int64
		)
		if err := rows.Scan(&run.TaskID, &run.Description, &success,
			&run.CompletedSteps, &run.FailedSteps, &durationMS, &run.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Success = success != 0
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetResult reconstructs the most recent stored result for a task ID.
func (db *DB) GetResult(taskID string) (*models.ExecutionResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var (
		runID      int64
		success    int
		durationMS int64
		errorsJSON string
		result     models.ExecutionResult
	)
	row := db.conn.QueryRow(`
		SELECT id, success, completed_steps, failed_steps, duration_ms, errors
		FROM task_runs WHERE task_id = ? ORDER BY id DESC LIMIT 1`, taskID)
	if err := row.Scan(&runID, &success, &result.CompletedSteps,
		&result.FailedSteps, &durationMS, &errorsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no runs recorded for task %s", taskID)
		}
		return nil, fmt.Errorf("query run: %w", err)
	}

	result.TaskID = taskID
	result.Success = success != 0
	result.Duration = time.Duration(durationMS) * time.Millisecond
	if err := json.Unmarshal([]byte(errorsJSON), &result.Errors); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT step_id, success, error, duration_ms, retries
		FROM step_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query step results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			step       models.StepResult
			stepOK     int
			durationMS int64
		)
		if err := rows.Scan(&step.StepID, &stepOK, &step.Error, &durationMS, &step.Retries); err != nil {
			return nil, fmt.Errorf("scan step result: %w", err)
		}
		step.Success = stepOK != 0
		step.Duration = time.Duration(durationMS) * time.Millisecond
		result.Steps = append(result.Steps, step)
	}
	return &result, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
