package store

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements, each applied once.
// New migrations are appended at the end.
var migrations = []string{
	// Migration 0: initial schema
	`CREATE TABLE IF NOT EXISTS retry_sessions (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		prompt     TEXT NOT NULL,
		succeeded  INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS retry_attempts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  TEXT NOT NULL REFERENCES retry_sessions(id) ON DELETE CASCADE,
		number      INTEGER NOT NULL,
		mode        TEXT,
		strategy    TEXT,
		prompt      TEXT,
		error       TEXT,
		duration_ms INTEGER,
		succeeded   INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS strategy_stats (
		strategy  TEXT PRIMARY KEY,
		uses      INTEGER NOT NULL DEFAULT 0,
		successes INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS chunks (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		path       TEXT NOT NULL,
		chunk_type TEXT,
		name       TEXT,
		start_line INTEGER,
		end_line   INTEGER,
		content    TEXT NOT NULL,
		imports    TEXT,
		exports    TEXT,
		embedding  BLOB,
		indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_project  ON retry_sessions(project_id, started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_attempts_session  ON retry_attempts(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_project    ON chunks(project_id)`,
}

func applyMigrations(conn *sql.DB) error {
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmt := range migrations {
		var count int
		row := conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, i)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", i, err)
		}
		if count > 0 {
			continue
		}
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i, err)
		}
		if _, err := conn.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, i); err != nil {
			return fmt.Errorf("record migration %d: %w", i, err)
		}
	}
	return nil
}

func applyVectorTable(conn *sql.DB, dimension int) error {
	stmt := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
		id TEXT PRIMARY KEY,
		embedding float[%d]
	)`, dimension)
	if _, err := conn.Exec(stmt); err != nil {
		return fmt.Errorf("create vector table: %w", err)
	}
	return nil
}
