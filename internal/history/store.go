package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Run is one recorded publish run.
type Run struct {
	ID             string
	Slug           string
	PackageRoot    string
	State          string
	StartedAt      time.Time
	FinishedAt     time.Time
	Uploads        int
	MetadataWrites int
	Failed         int
	ErrorMessage   string
	Files          []File
}

// File is one file's outcome within a run.
type File struct {
	Path            string
	Status          string
	Digest          string
	StorageRef      string
	Uploaded        bool
	MetadataWritten bool
	ErrorKind       string
	ErrorMessage    string
}

// Store manages the run ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path required")
	}
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

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a run and its file outcomes in one transaction.
func (s *Store) Record(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, slug, package_root, state, started_at, finished_at,
            uploads, metadata_writes, failed, error_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Slug,
		run.PackageRoot,
		run.State,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Uploads,
		run.MetadataWrites,
		run.Failed,
		nullableString(run.ErrorMessage),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, file := range run.Files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO file_outcomes (
                run_id, path, status, digest, storage_ref,
                uploaded, metadata_written, error_kind, error_message
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			file.Path,
			file.Status,
			nullableString(file.Digest),
			nullableString(file.StorageRef),
			boolToInt(file.Uploaded),
			boolToInt(file.MetadataWritten),
			nullableString(file.ErrorKind),
			nullableString(file.ErrorMessage),
		); err != nil {
			return fmt.Errorf("insert file outcome %s: %w", file.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. An empty slug lists every
// package. Files are not loaded; use Files.
func (s *Store) List(ctx context.Context, slug string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, slug, package_root, state, started_at, finished_at,
            uploads, metadata_writes, failed, error_message
        FROM runs`
	args := []any{}
	if slug = strings.TrimSpace(slug); slug != "" {
		query += " WHERE slug = ?"
		args = append(args, slug)
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished string
			errMsg            sql.NullString
		)
		if err := rows.Scan(
			&run.ID, &run.Slug, &run.PackageRoot, &run.State, &started, &finished,
			&run.Uploads, &run.MetadataWrites, &run.Failed, &errMsg,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		run.ErrorMessage = errMsg.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Files returns the file outcomes of one run sorted by path.
func (s *Store) Files(ctx context.Context, runID string) ([]File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, status, digest, storage_ref, uploaded, metadata_written, error_kind, error_message
        FROM file_outcomes WHERE run_id = ? ORDER BY path`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query file outcomes: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var (
			file                             File
			digest, ref, errKind, errMessage sql.NullString
			uploaded, written                int
		)
		if err := rows.Scan(&file.Path, &file.Status, &digest, &ref, &uploaded, &written, &errKind, &errMessage); err != nil {
			return nil, fmt.Errorf("scan file outcome: %w", err)
		}
		file.Digest = digest.String
		file.StorageRef = ref.String
		file.Uploaded = uploaded != 0
		file.MetadataWritten = written != 0
		file.ErrorKind = errKind.String
		file.ErrorMessage = errMessage.String
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file outcomes: %w", err)
	}
	return files, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset history)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
