package jobs

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"javaseeker/internal/paths"
)

// fixed-width so lexical order in sqlite matches chronological order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists the run history in <base>/history.db.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// OpenStore opens or creates the history database under base.
func OpenStore(base string, logger *slog.Logger) (*Store, error) {
	if _, err := paths.EnsureDir(base); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return openAt(paths.HistoryDBPath(base), logger)
}

func openAt(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// one writer at a time; sqlite serializes anyway
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{conn: conn, logger: logger, dbPath: dbPath}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return store, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			project TEXT NOT NULL,
			trigger_kind TEXT NOT NULL DEFAULT 'poll',
			status TEXT NOT NULL DEFAULT 'queued',
			project_status TEXT,
			created_at TEXT NOT NULL,
			started_at TEXT,
			completed_at TEXT,
			error TEXT,
			detail TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_project ON jobs(project);
		CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
		CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// CreateJob inserts a new job.
func (s *Store) CreateJob(job *Job) error {
	_, err := s.conn.Exec(`
		INSERT INTO jobs (id, type, project, trigger_kind, status, project_status, created_at, started_at, completed_at, error, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.Type,
		job.Project,
		job.Trigger,
		job.Status,
		nullString(job.ProjectStatus),
		job.CreatedAt.Format(timeLayout),
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
		nullString(job.Error),
		nullString(job.Detail),
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	s.logger.Debug("Created job", "jobId", job.ID, "project", job.Project)
	return nil
}

// UpdateJob writes the mutable fields of an existing job.
func (s *Store) UpdateJob(job *Job) error {
	result, err := s.conn.Exec(`
		UPDATE jobs SET
			status = ?,
			project_status = ?,
			started_at = ?,
			completed_at = ?,
			error = ?,
			detail = ?
		WHERE id = ?`,
		job.Status,
		nullString(job.ProjectStatus),
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
		nullString(job.Error),
		nullString(job.Detail),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("job not found: %s", job.ID)
	}
	return nil
}

const selectColumns = `id, type, project, trigger_kind, status, project_status, created_at, started_at, completed_at, error, detail`

// GetJob retrieves a job by ID. A missing job yields (nil, nil).
func (s *Store) GetJob(id string) (*Job, error) {
	row := s.conn.QueryRow(`SELECT `+selectColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

// ListJobs retrieves jobs matching opts, newest first.
func (s *Store) ListJobs(opts ListJobsOptions) (*ListJobsResponse, error) {
	var conditions []string
	var args []any

	if opts.Project != "" {
		conditions = append(conditions, "project = ?")
		args = append(args, opts.Project)
	}
	if len(opts.Status) > 0 {
		placeholders := make([]string, len(opts.Status))
		for i, status := range opts.Status {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var totalCount int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM jobs "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 500 {
		limit = 500
	}

	query := fmt.Sprintf(`SELECT %s FROM jobs %s ORDER BY created_at DESC LIMIT ? OFFSET ?`, selectColumns, whereClause)
	args = append(args, limit, opts.Offset)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	jobs := []*Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}

	return &ListJobsResponse{Jobs: jobs, TotalCount: totalCount}, nil
}

// AbandonUnfinished marks jobs left queued or running by a previous process
// as cancelled. Lifecycle work is re-derived from project status on the next
// poll, so nothing is re-enqueued.
func (s *Store) AbandonUnfinished() (int64, error) {
	now := time.Now().UTC().Format(timeLayout)
	result, err := s.conn.Exec(`
		UPDATE jobs SET status = 'cancelled', completed_at = ?, error = 'interrupted by shutdown'
		WHERE status IN ('queued', 'running')`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to abandon unfinished jobs: %w", err)
	}
	return result.RowsAffected()
}

// CleanupOldJobs removes finished jobs that completed before now-retention.
func (s *Store) CleanupOldJobs(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(timeLayout)
	result, err := s.conn.Exec(`
		DELETE FROM jobs
		WHERE status IN ('completed', 'failed', 'cancelled')
		AND completed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old jobs: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*Job, error) {
	var job Job
	var projectStatus, startedAt, completedAt, errMsg, detail sql.NullString
	var createdAt string

	err := row.Scan(
		&job.ID,
		&job.Type,
		&job.Project,
		&job.Trigger,
		&job.Status,
		&projectStatus,
		&createdAt,
		&startedAt,
		&completedAt,
		&errMsg,
		&detail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	job.ProjectStatus = projectStatus.String
	job.Error = errMsg.String
	job.Detail = detail.String

	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		job.CreatedAt = t
	}
	job.StartedAt = parseNullTime(startedAt)
	job.CompletedAt = parseNullTime(completedAt)

	return &job, nil
}

func parseNullTime(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(timeLayout), Valid: true}
}
