package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"subseg/internal/config"
	"subseg/internal/services"
)

const runColumns = "id, source_dir, output_dir, status, frames, pre_merged, segment_count, error_kind, error_message, started_at, finished_at"

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database under the state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryPath()
	db, err := sql.Open("sqlite", dbPath)
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

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
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

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// BeginRun records a new run in the running state.
func (s *Store) BeginRun(ctx context.Context, id, sourceDir string, startedAt time.Time) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("run id is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, source_dir, status, started_at) VALUES (?, ?, ?, ?)`,
		id,
		sourceDir,
		StatusRunning,
		startedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun marks the run completed at finishedAt and stores its segments in
// one transaction.
func (s *Store) FinishRun(ctx context.Context, id string, summary Summary, finishedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finish tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, output_dir = ?, frames = ?, pre_merged = ?, segment_count = ?, finished_at = ?
         WHERE id = ?`,
		StatusCompleted,
		nullableString(summary.OutputDir),
		summary.Frames,
		summary.PreMerged,
		len(summary.Segments),
		finishedAt.UTC().Format(timeLayout),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	for _, seg := range summary.Segments {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO segments (run_id, seq, start_ms, end_ms, frame_count, image_path) VALUES (?, ?, ?, ?, ?, ?)`,
			id,
			seg.Seq,
			seg.Start.Milliseconds(),
			seg.End.Milliseconds(),
			seg.FrameCount,
			nullableString(seg.ImagePath),
		); err != nil {
			return fmt.Errorf("insert segment %d: %w", seg.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finish: %w", err)
	}
	return nil
}

// FailRun marks the run failed, recording the error text and its classification.
func (s *Store) FailRun(ctx context.Context, id string, frameCount int, cause error, finishedAt time.Time) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, frames = ?, error_kind = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		StatusFailed,
		frameCount,
		nullableString(services.Classify(cause)),
		nullableString(message),
		finishedAt.UTC().Format(timeLayout),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return requireRow(res, id)
}

// ListRuns returns the most recent runs, newest first. A limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
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
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun fetches a run by its full identifier or a unique prefix.
func (s *Store) GetRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, services.Wrap(services.ErrValidation, "history", "get run", "run id is required", nil)
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`,
		idOrPrefix,
		escapeLike(idOrPrefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, services.Wrap(services.ErrNotFound, "history", "get run", fmt.Sprintf("no run matches %q", idOrPrefix), nil)
	case 1:
		return matches[0], nil
	default:
		for _, run := range matches {
			if run.ID == idOrPrefix {
				return run, nil
			}
		}
		return nil, services.Wrap(services.ErrValidation, "history", "get run", fmt.Sprintf("run prefix %q is ambiguous", idOrPrefix), nil)
	}
}

// Segments returns the recorded segments of a run in emission order.
func (s *Store) Segments(ctx context.Context, runID string) ([]SegmentRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT seq, start_ms, end_ms, frame_count, image_path FROM segments WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var segments []SegmentRecord
	for rows.Next() {
		var (
			rec       SegmentRecord
			startMS   int64
			endMS     int64
			imagePath sql.NullString
		)
		if err := rows.Scan(&rec.Seq, &startMS, &endMS, &rec.FrameCount, &imagePath); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		rec.Start = time.Duration(startMS) * time.Millisecond
		rec.End = time.Duration(endMS) * time.Millisecond
		rec.ImagePath = imagePath.String
		segments = append(segments, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w", err)
	}
	return segments, nil
}
