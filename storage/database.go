// Package storage provides data persistence using SQLite for the signup harness.
// It records every harness run and the scenario results it produced.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nikshitha/signup-harness/logger"
	"github.com/nikshitha/signup-harness/result"
	_ "modernc.org/sqlite"
)

// Database wraps SQLite database operations
type Database struct {
	db     *sql.DB
	logger *logger.Logger
}

// Run is one harness run against a target
type Run struct {
	ID            string     `json:"id"`
	Target        string     `json:"target"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Success       int        `json:"success"`
	Failure       int        `json:"failure"`
	Indeterminate int        `json:"indeterminate"`
}

// DailyStats aggregates run outcomes per calendar day
type DailyStats struct {
	Date          string `json:"date"`
	Runs          int    `json:"runs"`
	Success       int    `json:"success"`
	Failure       int    `json:"failure"`
	Indeterminate int    `json:"indeterminate"`
}

// NewDatabase creates a new database connection
func NewDatabase(dbPath string, log *logger.Logger) (*Database, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	database := &Database{
		db:     db,
		logger: log.WithModule("storage"),
	}

	// Initialize schema
	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	database.logger.Info("Database initialized successfully")
	return database, nil
}

// initSchema creates the database tables if they don't exist
func (d *Database) initSchema() error {
	schema := `
	-- One row per harness run
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		success INTEGER DEFAULT 0,
		failure INTEGER DEFAULT 0,
		indeterminate INTEGER DEFAULT 0
	);

	-- Scenario results table
	CREATE TABLE IF NOT EXISTS scenario_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		scenario TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT,
		warnings TEXT,
		recorded_at INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	-- Daily statistics table
	CREATE TABLE IF NOT EXISTS daily_stats (
		date TEXT PRIMARY KEY,
		runs INTEGER DEFAULT 0,
		success INTEGER DEFAULT 0,
		failure INTEGER DEFAULT 0,
		indeterminate INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON scenario_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_status ON scenario_results(status);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// ==============================================================================
// Run Operations
// ==============================================================================

// StartRun records the start of a run and returns its ID
func (d *Database) StartRun(target string) (string, error) {
	id := uuid.NewString()

	_, err := d.db.Exec(`INSERT INTO runs (id, target, started_at) VALUES (?, ?, ?)`,
		id, target, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}

	d.logger.WithField("run_id", id).Debug("Run started")
	return id, nil
}

// FinishRun stamps the run's end and stores its per-status counts
func (d *Database) FinishRun(runID string, counts map[string]int) error {
	success := counts[string(result.StatusSuccess)]
	failure := counts[string(result.StatusFailure)]
	indeterminate := counts[string(result.StatusIndeterminate)]

	res, err := d.db.Exec(`
		UPDATE runs SET finished_at = ?, success = ?, failure = ?, indeterminate = ?
		WHERE id = ?
	`, time.Now().UnixMilli(), success, failure, indeterminate, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to finish run: unknown run %s", runID)
	}

	return d.addDailyStats(success, failure, indeterminate)
}

// GetRun retrieves a run by ID, or nil if there is none
func (d *Database) GetRun(runID string) (*Run, error) {
	query := `SELECT id, target, started_at, finished_at, success, failure, indeterminate FROM runs WHERE id = ?`

	run, err := scanRun(d.db.QueryRow(query, runID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetRecentRuns returns the latest runs, newest first
func (d *Database) GetRecentRuns(limit int) ([]*Run, error) {
	query := `SELECT id, target, started_at, finished_at, success, failure, indeterminate FROM runs ORDER BY started_at DESC LIMIT ?`

	rows, err := d.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run      Run
		started  int64
		finished sql.NullInt64
	)
	if err := row.Scan(&run.ID, &run.Target, &started, &finished, &run.Success, &run.Failure, &run.Indeterminate); err != nil {
		return nil, err
	}

	run.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		t := time.UnixMilli(finished.Int64)
		run.FinishedAt = &t
	}
	return &run, nil
}

// ==============================================================================
// Scenario Result Operations
// ==============================================================================

// SaveResult stores one scenario result under a run
func (d *Database) SaveResult(runID string, r result.ScenarioResult) error {
	var warnings []byte
	if len(r.Warnings) > 0 {
		var err error
		if warnings, err = json.Marshal(r.Warnings); err != nil {
			return fmt.Errorf("failed to encode warnings: %w", err)
		}
	}

	recorded := r.Time
	if recorded.IsZero() {
		recorded = time.Now()
	}

	_, err := d.db.Exec(`
		INSERT INTO scenario_results (run_id, scenario, status, message, warnings, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, r.Scenario, string(r.Status), r.Message, string(warnings), recorded.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	d.logger.WithFields(map[string]interface{}{
		"run_id":   runID,
		"scenario": r.Scenario,
	}).Debug("Result saved")
	return nil
}

// GetRunResults returns a run's scenario results in the order they were recorded
func (d *Database) GetRunResults(runID string) ([]result.ScenarioResult, error) {
	query := `SELECT scenario, status, message, warnings, recorded_at FROM scenario_results WHERE run_id = ? ORDER BY id`

	rows, err := d.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []result.ScenarioResult
	for rows.Next() {
		var (
			r        result.ScenarioResult
			status   string
			message  sql.NullString
			warnings sql.NullString
			recorded int64
		)
		if err := rows.Scan(&r.Scenario, &status, &message, &warnings, &recorded); err != nil {
			return nil, err
		}

		r.Status = result.Status(status)
		r.Message = message.String
		r.Time = time.UnixMilli(recorded)
		if warnings.String != "" {
			if err := json.Unmarshal([]byte(warnings.String), &r.Warnings); err != nil {
				return nil, fmt.Errorf("failed to decode warnings: %w", err)
			}
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetStatusCounts counts a run's stored results per status
func (d *Database) GetStatusCounts(runID string) (map[string]int, error) {
	rows, err := d.db.Query(`SELECT status, COUNT(*) FROM scenario_results WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{
		string(result.StatusSuccess):       0,
		string(result.StatusFailure):       0,
		string(result.StatusIndeterminate): 0,
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}

	return counts, rows.Err()
}

// ==============================================================================
// Statistics Operations
// ==============================================================================

// GetTodayStats returns today's run statistics
func (d *Database) GetTodayStats() (*DailyStats, error) {
	today := time.Now().Format("2006-01-02")
	query := `SELECT date, runs, success, failure, indeterminate FROM daily_stats WHERE date = ?`

	stats := &DailyStats{Date: today}
	err := d.db.QueryRow(query, today).Scan(
		&stats.Date, &stats.Runs, &stats.Success, &stats.Failure, &stats.Indeterminate,
	)

	if err == sql.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// addDailyStats folds one finished run into today's counters
func (d *Database) addDailyStats(success, failure, indeterminate int) error {
	today := time.Now().Format("2006-01-02")

	_, err := d.db.Exec(`
		INSERT INTO daily_stats (date, runs, success, failure, indeterminate)
		VALUES (?, 1, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			runs = runs + 1,
			success = success + excluded.success,
			failure = failure + excluded.failure,
			indeterminate = indeterminate + excluded.indeterminate
	`, today, success, failure, indeterminate)
	if err != nil {
		return fmt.Errorf("failed to update daily stats: %w", err)
	}
	return nil
}
