// Package usage records anonymous per-session tool usage in SQLite and
// answers aggregate queries over it.
package usage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists usage rows. Safe for concurrent use; database/sql pools
// connections and WAL mode keeps readers off the writer's back.
type Store struct {
	db   *sql.DB
	path string
}

// SessionStats aggregates one session's usage for a calendar month.
type SessionStats struct {
	SessionID     string         `json:"session_id"`
	Month         int            `json:"month"`
	Year          int            `json:"year"`
	TotalAPICalls int            `json:"total_api_calls"`
	ToolUsage     map[string]int `json:"tool_usage"`
	DailyUsage    map[string]int `json:"daily_usage"`
}

// OverallStats aggregates usage across all sessions.
type OverallStats struct {
	TotalAPICalls int            `json:"total_api_calls"`
	TotalSessions int            `json:"total_unique_sessions"`
	ToolUsage     map[string]int `json:"tool_usage"`
	MonthlyUsage  map[string]int `json:"monthly_usage"`
}

// Open creates or opens the usage database at path and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create usage db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate usage db: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		tool TEXT NOT NULL,
		timestamp REAL NOT NULL,
		api_calls INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_session_timestamp ON usage(session_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_tool ON usage(tool);
	`)
	return err
}

// Record inserts one usage row for a completed tool call.
func (s *Store) Record(sessionID, tool string) error {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(tool) == "" {
		return errors.New("usage record requires session id and tool")
	}
	_, err := s.db.Exec(
		"INSERT INTO usage (session_id, tool, timestamp, api_calls) VALUES (?, ?, ?, 1)",
		sessionID, tool, float64(time.Now().UnixMilli())/1000,
	)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// SessionStats returns one session's usage for the given month. Zero or
// out-of-range month/year fall back to the current month.
func (s *Store) SessionStats(sessionID string, month, year int) (SessionStats, error) {
	now := time.Now()
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	if year < 2000 || year > 2100 {
		year = now.Year()
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	stats := SessionStats{
		SessionID:  sessionID,
		Month:      month,
		Year:       year,
		ToolUsage:  map[string]int{},
		DailyUsage: map[string]int{},
	}

	row := s.db.QueryRow(
		"SELECT COALESCE(SUM(api_calls), 0) FROM usage WHERE session_id = ? AND timestamp >= ? AND timestamp < ?",
		sessionID, unixSeconds(start), unixSeconds(end),
	)
	if err := row.Scan(&stats.TotalAPICalls); err != nil {
		return stats, fmt.Errorf("session total: %w", err)
	}

	var err error
	stats.ToolUsage, err = s.countBy(
		"SELECT tool, SUM(api_calls) FROM usage WHERE session_id = ? AND timestamp >= ? AND timestamp < ? GROUP BY tool",
		sessionID, unixSeconds(start), unixSeconds(end),
	)
	if err != nil {
		return stats, fmt.Errorf("session tool usage: %w", err)
	}

	stats.DailyUsage, err = s.countBy(
		`SELECT strftime('%Y-%m-%d', datetime(timestamp, 'unixepoch')), SUM(api_calls)
		 FROM usage WHERE session_id = ? AND timestamp >= ? AND timestamp < ?
		 GROUP BY 1 ORDER BY 1`,
		sessionID, unixSeconds(start), unixSeconds(end),
	)
	if err != nil {
		return stats, fmt.Errorf("session daily usage: %w", err)
	}
	return stats, nil
}

// OverallStats returns aggregate usage across all sessions, with per-month
// totals for the most recent twelve months of data.
func (s *Store) OverallStats() (OverallStats, error) {
	stats := OverallStats{ToolUsage: map[string]int{}, MonthlyUsage: map[string]int{}}

	row := s.db.QueryRow("SELECT COALESCE(SUM(api_calls), 0), COUNT(DISTINCT session_id) FROM usage")
	if err := row.Scan(&stats.TotalAPICalls, &stats.TotalSessions); err != nil {
		return stats, fmt.Errorf("overall totals: %w", err)
	}

	var err error
	stats.ToolUsage, err = s.countBy(
		"SELECT tool, SUM(api_calls) FROM usage GROUP BY tool ORDER BY SUM(api_calls) DESC",
	)
	if err != nil {
		return stats, fmt.Errorf("overall tool usage: %w", err)
	}

	stats.MonthlyUsage, err = s.countBy(
		`SELECT strftime('%Y-%m', datetime(timestamp, 'unixepoch')), SUM(api_calls)
		 FROM usage GROUP BY 1 ORDER BY 1 DESC LIMIT 12`,
	)
	if err != nil {
		return stats, fmt.Errorf("overall monthly usage: %w", err)
	}
	return stats, nil
}

// Cleanup deletes rows older than the given number of days and returns how
// many were removed. Retention is floored at 30 days.
func (s *Store) Cleanup(days int) (int64, error) {
	if days < 30 {
		days = 30
	}
	cutoff := unixSeconds(time.Now().AddDate(0, 0, -days))
	res, err := s.db.Exec("DELETE FROM usage WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup usage: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) countBy(query string, args ...any) (map[string]int, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}
