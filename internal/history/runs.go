package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BeginRun inserts a new run row and returns it with a fresh UUID.
func (s *Store) BeginRun(ctx context.Context, kind, inputDir, outputDir string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Kind:      strings.TrimSpace(kind),
		InputDir:  inputDir,
		OutputDir: outputDir,
		StartedAt: time.Now(),
	}
	if run.Kind == "" {
		return nil, errors.New("run kind is required")
	}
	err := s.exec(ctx,
		`INSERT INTO runs (id, kind, input_dir, output_dir, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.InputDir, run.OutputDir, formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// RecordFile appends a file result to a run and bumps the run counters.
func (s *Store) RecordFile(ctx context.Context, result FileResult) error {
	if result.RunID == "" {
		return errors.New("file result requires a run id")
	}
	if result.RecordedAt.IsZero() {
		result.RecordedAt = time.Now()
	}
	failed := 0
	if result.Status == FileStatusFailed {
		failed = 1
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `INSERT INTO file_results (
			run_id, file_name, status, error_kind, error_message, segments,
			fragments_unintelligible, fragments_failed, output_path, elapsed_ms, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.RunID, result.FileName, string(result.Status), result.ErrorKind, result.ErrorMessage,
			result.Segments, result.FragmentsUnintelligible, result.FragmentsFailed, result.OutputPath,
			result.Elapsed.Milliseconds(), formatTime(result.RecordedAt),
		); err != nil {
			return fmt.Errorf("insert file result: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE runs SET files_total = files_total + 1, files_failed = files_failed + ? WHERE id = ?`,
			failed, result.RunID,
		)
		if err != nil {
			return fmt.Errorf("update run counters: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run %s not found", result.RunID)
		}
		return tx.Commit()
	})
}

// FinishRun stamps the completion time.
func (s *Store) FinishRun(ctx context.Context, runID string) error {
	return s.exec(ctx, `UPDATE runs SET finished_at = ? WHERE id = ?`, formatTime(time.Now()), runID)
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, input_dir, output_dir, started_at, finished_at, files_total, files_failed
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a single run by id or unique id prefix. It returns nil when
// no run matches.
func (s *Store) GetRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, errors.New("run id is required")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, input_dir, output_dir, started_at, finished_at, files_total, files_failed
		FROM runs WHERE id = ? OR id LIKE ? ORDER BY started_at DESC LIMIT 2`, idOrPrefix, idOrPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range found {
		if found[i].ID == idOrPrefix {
			return &found[i], nil
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		started  sql.NullString
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Kind, &run.InputDir, &run.OutputDir, &started, &finished, &run.FilesTotal, &run.FilesFailed); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	return run, nil
}

// ListFiles returns the file results of a run in recording order.
func (s *Store) ListFiles(ctx context.Context, runID string) ([]FileResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, file_name, status, error_kind, error_message, segments,
		fragments_unintelligible, fragments_failed, output_path, elapsed_ms, recorded_at
		FROM file_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list file results: %w", err)
	}
	defer rows.Close()

	var results []FileResult
	for rows.Next() {
		var (
			r        FileResult
			status   string
			elapsed  int64
			recorded sql.NullString
		)
		if err := rows.Scan(&r.RunID, &r.FileName, &status, &r.ErrorKind, &r.ErrorMessage, &r.Segments,
			&r.FragmentsUnintelligible, &r.FragmentsFailed, &r.OutputPath, &elapsed, &recorded); err != nil {
			return nil, fmt.Errorf("scan file result: %w", err)
		}
		r.Status = FileStatus(status)
		r.Elapsed = time.Duration(elapsed) * time.Millisecond
		r.RecordedAt = parseTime(recorded)
		results = append(results, r)
	}
	return results, rows.Err()
}
