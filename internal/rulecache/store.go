package rulecache

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is a durable cache of rule-set JSON documents.
type Store struct {
	db *sql.DB
}

// Entry describes one cached rule set, for listings.
type Entry struct {
	CacheKey  string
	Provider  string
	SizeBytes int
	CreatedAt time.Time
}

// Open creates or opens the cache database at the given path.
//
// SQLite is configured the same way as any single-writer store here:
// WAL mode for concurrent reads, NORMAL synchronous, busy timeout for
// lock contention, and a single connection to avoid SQLITE_BUSY.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open rule cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect rule cache: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply rule cache schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores a rule-set payload under a cache key, replacing any previous
// entry for the same key. Idempotent for identical payloads.
func (s *Store) Put(ctx context.Context, cacheKey, provider string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rule_sets (cache_key, provider, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			provider = excluded.provider,
			payload = excluded.payload,
			created_at = excluded.created_at`,
		cacheKey, provider, string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cache rule set %s: %w", cacheKey, err)
	}
	return nil
}

// Get returns the cached payload for a key. The second result reports
// whether the key was present; a miss is not an error.
func (s *Store) Get(ctx context.Context, cacheKey string) ([]byte, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM rule_sets WHERE cache_key = ?`, cacheKey,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read rule set %s: %w", cacheKey, err)
	}
	return []byte(payload), true, nil
}

// Delete removes one cached entry. Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, cacheKey string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rule_sets WHERE cache_key = ?`, cacheKey); err != nil {
		return fmt.Errorf("delete rule set %s: %w", cacheKey, err)
	}
	return nil
}

// Clear removes every cached entry and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rule_sets`)
	if err != nil {
		return 0, fmt.Errorf("clear rule cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear rule cache: %w", err)
	}
	return n, nil
}

// List returns all cached entries, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cache_key, provider, length(payload), created_at
		FROM rule_sets
		ORDER BY created_at DESC, cache_key`)
	if err != nil {
		return nil, fmt.Errorf("list rule cache: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.CacheKey, &e.Provider, &e.SizeBytes, &created); err != nil {
			return nil, fmt.Errorf("scan rule cache row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rule cache: %w", err)
	}
	return entries, nil
}
