// Package store persists what the engine otherwise keeps in memory:
// retry sessions, strategy counters, and indexed chunks with their
// embeddings. The engine runs fully without it; the store only lets
// state survive restarts.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/weaverhq/weaver/internal/embed"
)

func init() {
	// Register sqlite-vec as an auto-extension so every connection has the
	// vec0 virtual table module available.
	vec.Auto()
}

// Store wraps the SQLite handle.
type Store struct {
	conn      *sql.DB
	dimension int
	hasVec    bool
}

// Open opens (or creates) the database at path and applies migrations.
// The vec0 virtual table is optional; without it embeddings persist as
// plain blobs only.
func Open(path string, dimension int) (*Store, error) {
	if dimension <= 0 {
		dimension = embed.DefaultDimension
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("store: resolve path: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", absPath)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := applyMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply migrations: %w", err)
	}

	s := &Store{conn: conn, dimension: dimension}
	// Non-fatal: without vec0 similarity persistence degrades to blobs.
	if err := applyVectorTable(conn, dimension); err == nil {
		s.hasVec = true
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Ping() error {
	return s.conn.Ping()
}
