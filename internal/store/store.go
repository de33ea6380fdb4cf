package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studiowebux/stampede/internal/migrations"
)

// Run represents a load test run record
type Run struct {
	ID            int64
	Scenario      string
	Host          string
	Seed          int64
	TotalUsers    int
	StartedAt     time.Time
	CompletedAt   *time.Time
	Status        string // "running", "completed", "cancelled", "failed"
	TotalRequests int
	TotalSuccess  int
	TotalFailures int
	AuthFailures  int
	AvgDurationMs float64
	MinDurationMs int64
	MaxDurationMs int64
	P50DurationMs int64
	P95DurationMs int64
	P99DurationMs int64
}

// IsRunning returns true if the run is currently in progress
func (r *Run) IsRunning() bool {
	return r.Status == "running"
}

// IsCompleted returns true if the run has finished
func (r *Run) IsCompleted() bool {
	return r.Status == "completed" || r.Status == "cancelled" || r.Status == "failed"
}

// Metric represents a single request metric within a run
type Metric struct {
	ID             int64
	RunID          int64
	Timestamp      time.Time
	ElapsedMs      int64
	Profile        string
	Task           string
	Endpoint       string
	StatusCode     int
	DurationMs     int64
	RequestSize    int64
	ResponseSize   int64
	FailureMessage string
}

// Store handles run and metric persistence
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and applies migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun creates a new run record
func (s *Store) CreateRun(run *Run) error {
	result, err := s.db.Exec(`
		INSERT INTO runs
		(scenario, host, seed, total_users, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.Scenario, run.Host, run.Seed, run.TotalUsers, run.StartedAt, run.Status)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	run.ID = id
	return nil
}

// UpdateRun updates a run record
func (s *Store) UpdateRun(run *Run) error {
	_, err := s.db.Exec(`
		UPDATE runs
		SET completed_at = ?, status = ?, total_requests = ?, total_success = ?,
		    total_failures = ?, auth_failures = ?, avg_duration_ms = ?, min_duration_ms = ?,
		    max_duration_ms = ?, p50_duration_ms = ?, p95_duration_ms = ?, p99_duration_ms = ?
		WHERE id = ?
	`, run.CompletedAt, run.Status, run.TotalRequests, run.TotalSuccess,
		run.TotalFailures, run.AuthFailures, run.AvgDurationMs, run.MinDurationMs,
		run.MaxDurationMs, run.P50DurationMs, run.P95DurationMs, run.P99DurationMs, run.ID)
	return err
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(id int64) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime

	err := s.db.QueryRow(`
		SELECT id, scenario, host, seed, total_users, started_at, completed_at, status,
		       total_requests, total_success, total_failures, COALESCE(auth_failures, 0),
		       COALESCE(avg_duration_ms, 0), COALESCE(min_duration_ms, 0), COALESCE(max_duration_ms, 0),
		       COALESCE(p50_duration_ms, 0), COALESCE(p95_duration_ms, 0), COALESCE(p99_duration_ms, 0)
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Scenario, &run.Host, &run.Seed, &run.TotalUsers,
		&run.StartedAt, &completedAt, &run.Status, &run.TotalRequests,
		&run.TotalSuccess, &run.TotalFailures, &run.AuthFailures, &run.AvgDurationMs,
		&run.MinDurationMs, &run.MaxDurationMs, &run.P50DurationMs, &run.P95DurationMs, &run.P99DurationMs)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return run, nil
}

// ListRuns returns runs ordered by start time, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, scenario, host, seed, total_users, started_at, completed_at, status,
		       total_requests, total_success, total_failures, COALESCE(auth_failures, 0),
		       COALESCE(avg_duration_ms, 0), COALESCE(min_duration_ms, 0), COALESCE(max_duration_ms, 0),
		       COALESCE(p50_duration_ms, 0), COALESCE(p95_duration_ms, 0), COALESCE(p99_duration_ms, 0)
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var completedAt sql.NullTime
		err := rows.Scan(&run.ID, &run.Scenario, &run.Host, &run.Seed, &run.TotalUsers,
			&run.StartedAt, &completedAt, &run.Status, &run.TotalRequests,
			&run.TotalSuccess, &run.TotalFailures, &run.AuthFailures, &run.AvgDurationMs,
			&run.MinDurationMs, &run.MaxDurationMs, &run.P50DurationMs, &run.P95DurationMs, &run.P99DurationMs)
		if err != nil {
			return nil, err
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveMetricsBatch inserts multiple metrics in a single statement.
func (s *Store) SaveMetricsBatch(metrics []*Metric) error {
	if len(metrics) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO run_metrics
		(run_id, timestamp, elapsed_ms, profile, task, endpoint, status_code, duration_ms, request_size, response_size, failure_message)
		VALUES `)

	args := make([]interface{}, 0, len(metrics)*11)
	for i, m := range metrics {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, m.RunID, m.Timestamp, m.ElapsedMs, m.Profile, m.Task,
			m.Endpoint, m.StatusCode, m.DurationMs, m.RequestSize, m.ResponseSize, m.FailureMessage)
	}

	_, err := s.db.Exec(sb.String(), args...)
	if err != nil {
		return fmt.Errorf("failed to save metrics batch: %w", err)
	}
	return nil
}

// TaskBreakdown aggregates a run's metrics per profile/task pair.
type TaskBreakdown struct {
	Profile       string
	Task          string
	Requests      int
	Failures      int
	AvgDurationMs float64
}

// GetTaskBreakdown returns per-task aggregates for a finished run.
func (s *Store) GetTaskBreakdown(runID int64) ([]*TaskBreakdown, error) {
	rows, err := s.db.Query(`
		SELECT profile, task, COUNT(*),
		       SUM(CASE WHEN failure_message IS NOT NULL AND failure_message != '' THEN 1 ELSE 0 END),
		       AVG(duration_ms)
		FROM run_metrics
		WHERE run_id = ?
		GROUP BY profile, task
		ORDER BY profile, task
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TaskBreakdown
	for rows.Next() {
		tb := &TaskBreakdown{}
		if err := rows.Scan(&tb.Profile, &tb.Task, &tb.Requests, &tb.Failures, &tb.AvgDurationMs); err != nil {
			return nil, err
		}
		out = append(out, tb)
	}
	return out, rows.Err()
}
