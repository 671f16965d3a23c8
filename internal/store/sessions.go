package store

import (
	"fmt"
	"time"

	"github.com/weaverhq/weaver/internal/retry"
)

// SaveSession persists a finished retry session with its attempts and
// folds its strategy usage into the aggregate counters.
func (s *Store) SaveSession(projectID string, session *retry.Session) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO retry_sessions (id, project_id, prompt, succeeded, started_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET succeeded = excluded.succeeded`,
		session.ID, projectID, session.Prompt, boolInt(session.Succeeded), session.StartedAt,
	); err != nil {
		return fmt.Errorf("store: save session: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM retry_attempts WHERE session_id = ?`, session.ID); err != nil {
		return fmt.Errorf("store: clear attempts: %w", err)
	}
	for _, a := range session.Attempts {
		if _, err := tx.Exec(
			`INSERT INTO retry_attempts (session_id, number, mode, strategy, prompt, error, duration_ms, succeeded)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			session.ID, a.Number, string(a.Mode), string(a.Strategy), a.Prompt,
			a.Error, a.Duration.Milliseconds(), boolInt(a.Succeeded),
		); err != nil {
			return fmt.Errorf("store: save attempt %d: %w", a.Number, err)
		}
		if a.Strategy == "" {
			continue
		}
		success := 0
		if a.Succeeded {
			success = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO strategy_stats (strategy, uses, successes) VALUES (?, 1, ?)
			 ON CONFLICT(strategy) DO UPDATE SET
			   uses = uses + 1, successes = successes + excluded.successes`,
			string(a.Strategy), success,
		); err != nil {
			return fmt.Errorf("store: bump strategy %s: %w", a.Strategy, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// RecentSessions returns the newest sessions for a project, attempts
// included.
func (s *Store) RecentSessions(projectID string, limit int) ([]retry.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.Query(
		`SELECT id, prompt, succeeded, started_at FROM retry_sessions
		 WHERE project_id = ? ORDER BY started_at DESC LIMIT ?`,
		projectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []retry.Session
	for rows.Next() {
		var sess retry.Session
		var succeeded int
		if err := rows.Scan(&sess.ID, &sess.Prompt, &succeeded, &sess.StartedAt); err != nil {
			return nil, fmt.Errorf("store: scan session: %w", err)
		}
		sess.Key = projectID
		sess.Succeeded = succeeded != 0
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate sessions: %w", err)
	}

	for i := range sessions {
		attempts, err := s.sessionAttempts(sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Attempts = attempts
	}
	return sessions, nil
}

func (s *Store) sessionAttempts(sessionID string) ([]retry.Attempt, error) {
	rows, err := s.conn.Query(
		`SELECT number, mode, strategy, prompt, error, duration_ms, succeeded
		 FROM retry_attempts WHERE session_id = ? ORDER BY number`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []retry.Attempt
	for rows.Next() {
		var a retry.Attempt
		var mode, strategy string
		var durationMS int64
		var succeeded int
		if err := rows.Scan(&a.Number, &mode, &strategy, &a.Prompt, &a.Error, &durationMS, &succeeded); err != nil {
			return nil, fmt.Errorf("store: scan attempt: %w", err)
		}
		a.Mode = retry.FailureMode(mode)
		a.Strategy = retry.Strategy(strategy)
		a.Duration = time.Duration(durationMS) * time.Millisecond
		a.Succeeded = succeeded != 0
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// StrategyStats loads the persisted per-strategy counters.
func (s *Store) StrategyStats() (map[retry.Strategy]retry.StrategyStat, error) {
	rows, err := s.conn.Query(`SELECT strategy, uses, successes FROM strategy_stats`)
	if err != nil {
		return nil, fmt.Errorf("store: query strategy stats: %w", err)
	}
	defer rows.Close()

	out := make(map[retry.Strategy]retry.StrategyStat)
	for rows.Next() {
		var name string
		var stat retry.StrategyStat
		if err := rows.Scan(&name, &stat.Uses, &stat.Successes); err != nil {
			return nil, fmt.Errorf("store: scan strategy stat: %w", err)
		}
		out[retry.Strategy(name)] = stat
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
