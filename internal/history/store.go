package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"sublingo/internal/config"
	"sublingo/internal/services"
)

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 20

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open connects to the history database named in cfg.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil || strings.TrimSpace(cfg.Paths.HistoryDB) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "history", "open", "paths.history_db is not set", nil)
	}
	return OpenPath(cfg.Paths.HistoryDB)
}

// OpenPath initializes or connects to the database at path and applies
// migrations.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// StartRun inserts a running run with a fresh UUID.
func (s *Store) StartRun(ctx context.Context, projectPath, sourceFile string, mode Mode) (*Run, error) {
	run := &Run{
		ID:          uuid.NewString(),
		ProjectPath: projectPath,
		SourceFile:  sourceFile,
		Mode:        mode,
		Status:      RunRunning,
		StartedAt:   s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, project_path, source_file, mode, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.ProjectPath,
		nullableString(run.SourceFile),
		string(run.Mode),
		string(run.Status),
		formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// RecordBatch appends one batch outcome to a run.
func (s *Store) RecordBatch(ctx context.Context, result BatchResult) error {
	if result.RecordedAt.IsZero() {
		result.RecordedAt = s.now().UTC()
	}
	success := 0
	if result.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO batch_results (
            run_id, range_start, range_end, success, provider, attempts,
            duration_ms, error_kind, error_message, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.Start,
		result.End,
		success,
		nullableString(result.Provider),
		result.Attempts,
		result.Duration.Milliseconds(),
		nullableString(result.ErrorKind),
		nullableString(result.Error),
		formatTime(result.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("insert batch result: %w", err)
	}
	return nil
}

// FinishRun stores the final status and counters of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, totals Totals, runErr error) error {
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, total_batches = ?,
            succeeded_batches = ?, failed_batches = ?, error_message = ?
         WHERE id = ?`,
		string(status),
		formatTime(s.now().UTC()),
		totals.Total,
		totals.Succeeded,
		totals.Failed,
		nullableString(message),
		runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "history", "finish", fmt.Sprintf("run %s", runID), nil)
	}
	return nil
}

const runColumns = "id, project_path, source_file, mode, status, started_at, finished_at, total_batches, succeeded_batches, failed_batches, error_message"

// GetRun fetches a run by ID. A unique ID prefix is accepted.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR id LIKE ? ORDER BY started_at DESC LIMIT 2",
		id, id+"%")
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	switch {
	case len(found) == 0:
		return nil, services.Wrap(services.ErrNotFound, "history", "get", fmt.Sprintf("run %s", id), nil)
	case len(found) > 1 && found[0].ID != id && found[1].ID != id:
		return nil, services.Wrap(services.ErrValidation, "history", "get", fmt.Sprintf("run prefix %s is ambiguous", id), nil)
	}
	for _, run := range found {
		if run.ID == id {
			return run, nil
		}
	}
	return found[0], nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// BatchResults returns the batches of a run in recording order.
func (s *Store) BatchResults(ctx context.Context, runID string) ([]BatchResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, range_start, range_end, success, provider, attempts,
            duration_ms, error_kind, error_message, recorded_at
         FROM batch_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query batch results: %w", err)
	}
	defer rows.Close()

	var out []BatchResult
	for rows.Next() {
		var (
			r          BatchResult
			success    int
			provider   sql.NullString
			durationMS int64
			errorKind  sql.NullString
			errorMsg   sql.NullString
			recorded   string
		)
		if err := rows.Scan(&r.RunID, &r.Start, &r.End, &success, &provider, &r.Attempts,
			&durationMS, &errorKind, &errorMsg, &recorded); err != nil {
			return nil, fmt.Errorf("scan batch result: %w", err)
		}
		r.Success = success != 0
		r.Provider = provider.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.ErrorKind = errorKind.String
		r.Error = errorMsg.String
		if ts, err := parseTimeString(recorded); err == nil {
			r.RecordedAt = ts
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch results: %w", err)
	}
	return out, nil
}

// ProviderUsage counts successful batches per provider for a run.
func (s *Store) ProviderUsage(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, COUNT(1) FROM batch_results
         WHERE run_id = ? AND success = 1 AND provider IS NOT NULL
         GROUP BY provider`, runID)
	if err != nil {
		return nil, fmt.Errorf("query provider usage: %w", err)
	}
	defer rows.Close()

	usage := map[string]int{}
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan provider usage: %w", err)
		}
		usage[name] = count
	}
	return usage, rows.Err()
}

// MarkAbandoned flags runs still marked running as failed. A crashed process
// leaves such rows behind.
func (s *Store) MarkAbandoned(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE status = ?`,
		string(RunFailed), "run did not finish", formatTime(s.now().UTC()), string(RunRunning))
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		sourceFile  sql.NullString
		mode        string
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		errorMsg    sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.ProjectPath, &sourceFile, &mode, &status, &startedRaw,
		&finishedRaw, &run.Total, &run.Succeeded, &run.Failed, &errorMsg); err != nil {
		return nil, err
	}
	run.SourceFile = sourceFile.String
	run.Mode = Mode(mode)
	run.Status = RunStatus(status)
	run.Error = errorMsg.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
