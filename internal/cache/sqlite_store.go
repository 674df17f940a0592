package cache

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps entries in a single SQLite table.
// Use ":memory:" for a throwaway database or a file path for persistence.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens dbPath and creates the schema if needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		identity TEXT NOT NULL,
		version_stamp TEXT NOT NULL,
		body BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_version ON cache_entries(version_stamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT identity, version_stamp, body, created_at FROM cache_entries WHERE key = ?", key)

	e := &Entry{Key: key}
	var createdAt int64
	if err := row.Scan(&e.Identity, &e.VersionStamp, &e.Body, &createdAt); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound{Key: key}
		}
		return nil, fmt.Errorf("query cache entry: %w", err)
	}
	e.CreatedAt = time.Unix(0, createdAt)
	return e, nil
}

func (s *SQLiteStore) Put(ctx context.Context, entry *Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	body := entry.Body
	if body == nil {
		body = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, identity, version_stamp, body, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			identity = excluded.identity,
			version_stamp = excluded.version_stamp,
			body = excluded.body,
			created_at = excluded.created_at`,
		entry.Key, entry.Identity, entry.VersionStamp, body, createdAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound{Key: key}
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]EntryInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, identity, version_stamp, created_at, length(body) FROM cache_entries ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("query cache entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []EntryInfo
	for rows.Next() {
		var info EntryInfo
		var createdAt int64
		if err := rows.Scan(&info.Key, &info.Identity, &info.VersionStamp, &createdAt, &info.Size); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		info.CreatedAt = time.Unix(0, createdAt)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteStale removes every entry whose stamp differs from version in one statement.
func (s *SQLiteStore) DeleteStale(ctx context.Context, version string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE version_stamp <> ?", version)
	if err != nil {
		return 0, fmt.Errorf("delete stale cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted cache entries: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
