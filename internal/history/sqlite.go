package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore SQLite history storage implementation
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite storage
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	return store, nil
}

// initTables initializes database tables
func (s *SQLiteStore) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS queries (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			mode TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			result_count INTEGER NOT NULL DEFAULT 0,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queries_created_at ON queries(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_queries_mode ON queries(mode)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute SQL: %s, error: %w", query, err)
		}
	}

	return nil
}

// Record saves a finished query
func (s *SQLiteStore) Record(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if strings.TrimSpace(rec.Query) == "" {
		return fmt.Errorf("record query cannot be empty")
	}
	if rec.Mode == "" {
		return fmt.Errorf("record mode cannot be empty")
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO queries (id, query, mode, count, result_count, latency_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Query, string(rec.Mode), rec.Count, rec.ResultCount,
		rec.Latency.Milliseconds(), errText, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	return nil
}

// List gets the most recent records
func (s *SQLiteStore) List(limit int) ([]*Record, error) {
	rows, err := s.db.Query(
		`SELECT id, query, mode, count, result_count, latency_ms, error, created_at
		 FROM queries
		 ORDER BY created_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Search searches records by query text
func (s *SQLiteStore) Search(keyword string, limit int) ([]*Record, error) {
	rows, err := s.db.Query(
		`SELECT id, query, mode, count, result_count, latency_ms, error, created_at
		 FROM queries
		 WHERE query LIKE ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		"%"+keyword+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		var rec Record
		var mode string
		var latencyMS int64
		var errText sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Query, &mode, &rec.Count, &rec.ResultCount, &latencyMS, &errText, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Mode = Mode(mode)
		rec.Latency = time.Duration(latencyMS) * time.Millisecond
		if errText.Valid {
			rec.Error = errText.String
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return records, nil
}

// Stats aggregates records per mode, ordered by mode name
func (s *SQLiteStore) Stats() ([]ModeStats, error) {
	rows, err := s.db.Query(
		`SELECT mode,
		        COUNT(*),
		        SUM(CASE WHEN error IS NOT NULL AND error != '' THEN 1 ELSE 0 END),
		        AVG(latency_ms),
		        MIN(latency_ms),
		        MAX(latency_ms)
		 FROM queries
		 GROUP BY mode
		 ORDER BY mode`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate records: %w", err)
	}
	defer rows.Close()

	var stats []ModeStats
	for rows.Next() {
		var st ModeStats
		var mode string
		var avg float64
		var minMS, maxMS int64
		if err := rows.Scan(&mode, &st.Total, &st.Failures, &avg, &minMS, &maxMS); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		st.Mode = Mode(mode)
		st.AvgLatency = time.Duration(avg * float64(time.Millisecond))
		st.MinLatency = time.Duration(minMS) * time.Millisecond
		st.MaxLatency = time.Duration(maxMS) * time.Millisecond
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}

	return stats, nil
}

// Clear deletes all records
func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM queries")
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
