// Package store persists pages and their undo history in a single SQLite file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

var ErrPageNotFound = errors.New("page not found")

type Store struct {
	path string
	db   *sql.DB
	log  *zap.Logger
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty path")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked"
	// when the TUI and a CLI command touch the same file.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	s := &Store{path: path, db: db, log: log.Named("store")}
	s.log.Debug("store opened", zap.String("path", path))
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS history_entries (
			page_id TEXT NOT NULL,
			stack TEXT NOT NULL,
			seq INTEGER NOT NULL,
			json TEXT NOT NULL,
			PRIMARY KEY (page_id, stack, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS history_meta (
			page_id TEXT PRIMARY KEY,
			last_action TEXT NOT NULL,
			last_push_unixms INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// CurrentPage returns the page commands default to when none is named.
func (s *Store) CurrentPage(ctx context.Context) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = ?`, "current_page_id").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	v = strings.TrimSpace(v)
	return v, v != "", nil
}

func (s *Store) SetCurrentPage(ctx context.Context, pageID string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO meta(k, v) VALUES(?, ?)`, "current_page_id", strings.TrimSpace(pageID))
	return err
}
