package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// Store wraps the database connection
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and owns the DB handle.
func NewStore(dbPath string) (*Store, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

// NewStoreWithDB reuses an existing database handle (e.g., long-lived server).
// dbPath should be the actual SQLite file path (for size reporting).
func NewStoreWithDB(db *sql.DB, dbPath string) *Store {
	return &Store{db: db, dbPath: dbPath}
}

// Close closes the database connection (only use if Store owns the DB).
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// PathCount is a request path with its hit count and bytes served.
type PathCount struct {
	Path     string `json:"path"`
	Requests int64  `json:"requests"`
	Bytes    int64  `json:"bytes"`
}

// AccessStats summarises the access log.
type AccessStats struct {
	TotalRequests int64            `json:"total_requests"`
	TotalBytes    int64            `json:"total_bytes"`
	ByStatus      map[int]int64    `json:"by_status"`
	ByEncoding    map[string]int64 `json:"by_encoding"`
	TopPaths      []PathCount      `json:"top_paths"`
	FirstSeen     int64            `json:"first_seen,omitempty"`
	LastSeen      int64            `json:"last_seen,omitempty"`
	DatabaseSize  int64            `json:"database_size"`
}

// Stats aggregates the access log. top bounds the number of paths returned.
func (s *Store) Stats(ctx context.Context, top int) (*AccessStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if top <= 0 {
		top = 10
	}

	stats := &AccessStats{
		ByStatus:   make(map[int]int64),
		ByEncoding: make(map[string]int64),
	}

	var first, last sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(bytes), 0), MIN(ts), MAX(ts)
		FROM access_log;
	`).Scan(&stats.TotalRequests, &stats.TotalBytes, &first, &last); err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	stats.FirstSeen = first.Int64
	stats.LastSeen = last.Int64

	if err := s.groupCounts(ctx, `SELECT status, COUNT(*) FROM access_log GROUP BY status;`, func(rows *sql.Rows) error {
		var status int
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return err
		}
		stats.ByStatus[status] = n
		return nil
	}); err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}

	if err := s.groupCounts(ctx, `SELECT encoding, COUNT(*) FROM access_log GROUP BY encoding;`, func(rows *sql.Rows) error {
		var enc string
		var n int64
		if err := rows.Scan(&enc, &n); err != nil {
			return err
		}
		if enc == "" {
			enc = "identity"
		}
		stats.ByEncoding[enc] += n
		return nil
	}); err != nil {
		return nil, fmt.Errorf("query encoding counts: %w", err)
	}

	paths, err := s.TopPaths(ctx, top)
	if err != nil {
		return nil, err
	}
	stats.TopPaths = paths

	if s.dbPath != "" {
		if fi, err := os.Stat(s.dbPath); err == nil {
			stats.DatabaseSize = fi.Size()
		}
	}

	return stats, nil
}

// TopPaths returns the most requested paths, busiest first.
func (s *Store) TopPaths(ctx context.Context, limit int) ([]PathCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, COUNT(*) AS hits, COALESCE(SUM(bytes), 0)
		FROM access_log
		GROUP BY path
		ORDER BY hits DESC, path ASC
		LIMIT ?;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top paths: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []PathCount
	for rows.Next() {
		var pc PathCount
		if err := rows.Scan(&pc.Path, &pc.Requests, &pc.Bytes); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func (s *Store) groupCounts(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
