package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"svw.info/numbermaster/internal/domain"
)

// SQLite stores sessions and the high score in a single database file.
type SQLite struct {
	db     *sql.DB
	dbPath string
}

// NewSQLite creates or opens the database at path.
func NewSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.dbPath
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		grid_json TEXT NOT NULL,
		score INTEGER NOT NULL,
		level INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);

	CREATE TABLE IF NOT EXISTS high_score (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		score INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO high_score (id, score) VALUES (1, 0);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) SaveSession(ctx context.Context, id string, snap *domain.Snapshot) error {
	if err := checkID(id); err != nil {
		return err
	}
	if snap == nil {
		return errors.New("invalid session: nil snapshot")
	}
	gridJSON, err := json.Marshal(snap.Grid)
	if err != nil {
		return fmt.Errorf("failed to encode grid: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, grid_json, score, level, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			grid_json = excluded.grid_json,
			score = excluded.score,
			level = excluded.level,
			updated_at = excluded.updated_at
	`, id, string(gridJSON), snap.Score, snap.Level, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SQLite) LoadSession(ctx context.Context, id string) (*domain.Snapshot, error) {
	var (
		gridJSON string
		out      domain.Snapshot
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT grid_json, score, level FROM sessions WHERE id = ?`, id,
	).Scan(&gridJSON, &out.Score, &out.Level)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := json.Unmarshal([]byte(gridJSON), &out.Grid); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &out, nil
}

func (s *SQLite) ClearSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]domain.SessionMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, score, level, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionMeta
	for rows.Next() {
		var m domain.SessionMeta
		if err := rows.Scan(&m.ID, &m.Score, &m.Level, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLite) LoadHighScore(ctx context.Context) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx, `SELECT score FROM high_score WHERE id = 1`).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load high score: %w", err)
	}
	return score, nil
}

func (s *SQLite) SaveHighScore(ctx context.Context, score int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO high_score (id, score) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET score = excluded.score
	`, score)
	if err != nil {
		return fmt.Errorf("failed to save high score: %w", err)
	}
	return nil
}
