package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-revenue-report/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Store keeps report job metadata: the submitted spec, status, stage
// progress and log lines. Report lines are never written here.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; stage goroutines share this handle
	db.SetMaxOpenConns(1)

	// Create tables if not exists
	schema := []string{`
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		spec TEXT,
		status TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`, `
	CREATE TABLE IF NOT EXISTS job_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);`, `
	CREATE TABLE IF NOT EXISTS stage_progress (
		job_id TEXT,
		stage TEXT,
		status TEXT,
		started_at DATETIME,
		ended_at DATETIME,
		rows_in INTEGER,
		rows_out INTEGER,
		PRIMARY KEY (job_id, stage)
	);`, `
	CREATE TABLE IF NOT EXISTS pipeline_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT,
		stage TEXT,
		level TEXT,
		message TEXT,
		fields TEXT,
		created_at DATETIME
	);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Job is a row of the jobs table.
type Job struct {
	ID        string              `json:"id"`
	Spec      model.ReportJobSpec `json:"spec"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// StageProgress is a row of the stage_progress table.
type StageProgress struct {
	Stage     string     `json:"stage"`
	Status    string     `json:"status"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	RowsIn    int64      `json:"rowsIn"`
	RowsOut   int64      `json:"rowsOut"`
}

// LogEntry is a row of the pipeline_logs table.
type LogEntry struct {
	Stage     string                 `json:"stage"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// SaveJob stores a new report job
func (s *Store) SaveJob(jobID string, spec model.ReportJobSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`INSERT INTO jobs (id, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		jobID, string(specJSON), model.StatusPending, now, now)
	return err
}

// SaveJobError records an error for a job
func (s *Store) SaveJobError(jobID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := s.db.Exec(`INSERT INTO job_errors (job_id, error_message, created_at) VALUES (?, ?, ?)`,
		jobID, err.Error(), now)
	return e
}

// JobErrors returns the error messages recorded for a job, oldest first.
func (s *Store) JobErrors(jobID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT error_message FROM job_errors WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// ListJobs returns all jobs, newest first
func (s *Store) ListJobs() ([]Job, error) {
	rows, err := s.db.Query(`SELECT id, spec, status, created_at, updated_at FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ErrJobNotFound is returned by GetJob for an unknown id.
var ErrJobNotFound = errors.New("job not found")

// GetJob fetches full job spec and status
func (s *Store) GetJob(jobID string) (Job, error) {
	row := s.db.QueryRow(`SELECT id, spec, status, created_at, updated_at FROM jobs WHERE id = ?`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrJobNotFound
	}
	return job, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(sc scanner) (Job, error) {
	var job Job
	var specJSON string
	if err := sc.Scan(&job.ID, &specJSON, &job.Status, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return Job{}, err
	}
	if err := json.Unmarshal([]byte(specJSON), &job.Spec); err != nil {
		return Job{}, err
	}
	return job, nil
}

// UpdateJobStatus updates job status
func (s *Store) UpdateJobStatus(jobID string, status string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`, status, now, jobID)
	return err
}

// SaveStageProgress upserts the progress of one stage of a job.
func (s *Store) SaveStageProgress(jobID, stage, status string, startedAt, endedAt *time.Time, rowsIn, rowsOut int64) error {
	_, err := s.db.Exec(`
	INSERT INTO stage_progress (job_id, stage, status, started_at, ended_at, rows_in, rows_out)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (job_id, stage) DO UPDATE SET
		status = excluded.status,
		started_at = COALESCE(excluded.started_at, stage_progress.started_at),
		ended_at = excluded.ended_at,
		rows_in = excluded.rows_in,
		rows_out = excluded.rows_out`,
		jobID, stage, status, startedAt, endedAt, rowsIn, rowsOut)
	return err
}

// StageProgress returns the stage rows of a job in the order they started.
func (s *Store) StageProgress(jobID string) ([]StageProgress, error) {
	rows, err := s.db.Query(`SELECT stage, status, started_at, ended_at, rows_in, rows_out
		FROM stage_progress WHERE job_id = ? ORDER BY started_at, stage`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StageProgress
	for rows.Next() {
		var p StageProgress
		var started, ended sql.NullTime
		if err := rows.Scan(&p.Stage, &p.Status, &started, &ended, &p.RowsIn, &p.RowsOut); err != nil {
			return nil, err
		}
		if started.Valid {
			p.StartedAt = &started.Time
		}
		if ended.Valid {
			p.EndedAt = &ended.Time
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SavePipelineLog appends a log line for a job.
func (s *Store) SavePipelineLog(jobID, stage, level, message string, fields map[string]interface{}) error {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO pipeline_logs (job_id, stage, level, message, fields, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, stage, level, message, string(fieldsJSON), time.Now().UTC())
	return err
}

// PipelineLogs returns the log lines of a job, oldest first.
func (s *Store) PipelineLogs(jobID string) ([]LogEntry, error) {
	rows, err := s.db.Query(`SELECT stage, level, message, fields, created_at FROM pipeline_logs WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var fieldsJSON string
		if err := rows.Scan(&e.Stage, &e.Level, &e.Message, &fieldsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &e.Fields); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
