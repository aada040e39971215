package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"voxel-launcher/internal/models"

	_ "modernc.org/sqlite"
)

// ErrNoHistory is returned by LastPlayed before the first launch.
var ErrNoHistory = errors.New("no launches recorded")

const schema = `
CREATE TABLE IF NOT EXISTS launches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    version TEXT NOT NULL,
    loader TEXT NOT NULL DEFAULT '',
    username TEXT NOT NULL DEFAULT '',
    started_at INTEGER NOT NULL,      -- UnixNano
    ended_at INTEGER NOT NULL DEFAULT 0,
    exit_code INTEGER NOT NULL DEFAULT 0,
    error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_launches_started ON launches(started_at);
`

// Store records game sessions in a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Begin records the start of a session and returns its id.
func (s *Store) Begin(ctx context.Context, rec models.LaunchRecord) (int64, error) {
	started := rec.StartedAt
	if started.IsZero() {
		started = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO launches (version, loader, username, started_at) VALUES (?, ?, ?, ?)",
		rec.Version, string(rec.Loader), rec.Username, started.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("record launch: %w", err)
	}
	return res.LastInsertId()
}

// Finish stamps the end of session id with its outcome.
func (s *Store) Finish(ctx context.Context, id int64, exitCode int, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE launches SET ended_at = ?, exit_code = ?, error = ? WHERE id = ?",
		s.now().UnixNano(), exitCode, errMsg, id)
	if err != nil {
		return fmt.Errorf("finish launch %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish launch %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// Recent returns up to n sessions, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]models.LaunchRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, version, loader, username, started_at, ended_at, exit_code, error
		 FROM launches ORDER BY started_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query launches: %w", err)
	}
	defer rows.Close()

	var records []models.LaunchRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LastPlayed returns the most recent session.
func (s *Store) LastPlayed(ctx context.Context) (models.LaunchRecord, error) {
	records, err := s.Recent(ctx, 1)
	if err != nil {
		return models.LaunchRecord{}, err
	}
	if len(records) == 0 {
		return models.LaunchRecord{}, ErrNoHistory
	}
	return records[0], nil
}

func scanRecord(rows *sql.Rows) (models.LaunchRecord, error) {
	var (
		rec            models.LaunchRecord
		loader         string
		started, ended int64
	)
	if err := rows.Scan(&rec.ID, &rec.Version, &loader, &rec.Username, &started, &ended, &rec.ExitCode, &rec.Error); err != nil {
		return rec, fmt.Errorf("scan launch: %w", err)
	}
	rec.Loader = models.LoaderType(loader)
	rec.StartedAt = time.Unix(0, started)
	if ended != 0 {
		rec.EndedAt = time.Unix(0, ended)
	}
	return rec, nil
}

// Shutdown closes the database.
func (s *Store) Shutdown() {
	s.db.Close()
}
