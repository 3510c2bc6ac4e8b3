package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS page_results (
	tab_id     INTEGER NOT NULL,
	url        TEXT    NOT NULL,
	result     BLOB    NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (tab_id, url)
);
`

// SQLiteCache persists results across process restarts. Use ":memory:"
// for an ephemeral database in tests.
type SQLiteCache struct {
	opts options
	db   *sql.DB
}

// NewSQLite opens (creating if needed) a cache database at path.
func NewSQLite(path string, opts ...Option) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &SQLiteCache{opts: newOptions(opts), db: db}, nil
}

// Get implements Cache.
func (s *SQLiteCache) Get(ctx context.Context, key types.PageKey) (*types.ScanResult, bool, error) {
	var data []byte
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT result, created_at FROM page_results WHERE tab_id = ? AND url = ?`,
		key.TabID, key.URL).Scan(&data, &createdAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	age := s.opts.now().UnixMilli() - createdAt
	if age >= s.opts.ttl.Milliseconds() {
		if err := s.Delete(ctx, key); err != nil {
			s.opts.logger.Debug("deleting expired cache entry failed",
				slog.String("key", key.String()), slog.String("error", err.Error()))
		}
		return nil, false, nil
	}

	res, err := decodeEntry(data)
	if err != nil {
		return nil, false, fmt.Errorf("decoding cache entry: %w", err)
	}
	return res, true, nil
}

// Put implements Cache. A write that fails after the content map has
// already been stripped is logged and dropped: the findings were served
// from memory, so losing the cache row is non-fatal.
func (s *SQLiteCache) Put(ctx context.Context, key types.PageKey, res *types.ScanResult) error {
	data, err := encodeEntry(res, s.opts.maxBytes)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO page_results (tab_id, url, result, created_at) VALUES (?, ?, ?, ?)`,
		key.TabID, key.URL, data, s.opts.now().UnixMilli())
	if err == nil {
		return nil
	}

	// Retry once with the content map stripped in case the first encode
	// was under budget but the store itself rejected the size.
	stripped := *res
	stripped.ContentMap = nil
	data, encErr := encodeEntry(&stripped, s.opts.maxBytes)
	if encErr == nil {
		_, err = s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO page_results (tab_id, url, result, created_at) VALUES (?, ?, ?, ?)`,
			key.TabID, key.URL, data, s.opts.now().UnixMilli())
	}
	if err != nil {
		s.opts.logger.Warn("dropping cache write",
			slog.String("key", key.String()), slog.String("error", err.Error()))
	}
	return nil
}

// Delete implements Cache.
func (s *SQLiteCache) Delete(ctx context.Context, key types.PageKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM page_results WHERE tab_id = ? AND url = ?`, key.TabID, key.URL)
	if err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// DeleteTab implements Cache.
func (s *SQLiteCache) DeleteTab(ctx context.Context, tabID int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM page_results WHERE tab_id = ?`, tabID)
	if err != nil {
		return fmt.Errorf("deleting tab cache entries: %w", err)
	}
	return nil
}

// Close implements Cache.
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}
