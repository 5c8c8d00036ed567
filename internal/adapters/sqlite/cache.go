// Package sqlite implements the metadata cache on an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS songdata (id TEXT PRIMARY KEY, json JSON);
CREATE TABLE IF NOT EXISTS artistdata (artist_name TEXT PRIMARY KEY, json JSON);
`

// namespace describes one key-value table of the cache.
type namespace struct {
	table string
	key   string
}

var (
	tracks  = namespace{table: "songdata", key: "id"}
	artists = namespace{table: "artistdata", key: "artist_name"}
)

// Stats holds row counts per namespace.
type Stats struct {
	Tracks        int `json:"tracks"`
	TracksNoData  int `json:"tracks_no_data"`
	Artists       int `json:"artists"`
	ArtistsNoData int `json:"artists_no_data"`
}

// Cache implements ports.MetadataCache. It is built for one sequential writer.
type Cache struct {
	db   *sql.DB
	path string
}

// Open creates the cache file (and its directory) if needed and ensures the schema.
func Open(path string) (*Cache, error) {
	log := logging.Component("cache")
	start := time.Now()

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: failed to create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cache: failed to open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: failed to connect to %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: failed to create schema: %w", err)
	}

	log.Debug().Str("path", path).Dur("duration", time.Since(start)).Msg("Cache opened")
	return &Cache{db: db, path: path}, nil
}

// Path returns the file the cache lives in.
func (c *Cache) Path() string {
	return c.path
}

func (c *Cache) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("cache: failed to close: %w", err)
	}
	return nil
}

// -- Track namespace ---------------------------------------------------------

func (c *Cache) GetTrack(ctx context.Context, trackID string) (domain.CacheEntry, bool, error) {
	return c.get(ctx, tracks, trackID)
}

func (c *Cache) PutTrack(ctx context.Context, trackID string, payload []byte) error {
	return c.put(ctx, tracks, trackID, payload)
}

func (c *Cache) HasTrack(ctx context.Context, trackID string) (bool, error) {
	_, ok, err := c.get(ctx, tracks, trackID)
	return ok, err
}

// InvalidateTrack drops a track so the next run looks it up again.
func (c *Cache) InvalidateTrack(ctx context.Context, trackID string) error {
	return c.delete(ctx, tracks, trackID)
}

// -- Artist namespace --------------------------------------------------------

func (c *Cache) GetArtist(ctx context.Context, name string) (domain.CacheEntry, bool, error) {
	return c.get(ctx, artists, name)
}

func (c *Cache) PutArtist(ctx context.Context, name string, payload []byte) error {
	return c.put(ctx, artists, name, payload)
}

// InvalidateArtist drops an artist so the next run looks it up again.
func (c *Cache) InvalidateArtist(ctx context.Context, name string) error {
	return c.delete(ctx, artists, name)
}

// Stats counts stored entries, separating the no-data sentinels.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error
	if s.Tracks, s.TracksNoData, err = c.count(ctx, tracks); err != nil {
		return s, err
	}
	if s.Artists, s.ArtistsNoData, err = c.count(ctx, artists); err != nil {
		return s, err
	}
	return s, nil
}

// -- SQL helpers -------------------------------------------------------------

func (c *Cache) get(ctx context.Context, ns namespace, key string) (domain.CacheEntry, bool, error) {
	query := fmt.Sprintf("SELECT json FROM %s WHERE %s = ?", ns.table, ns.key)

	var payload sql.NullString
	err := c.db.QueryRowContext(ctx, query, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("cache: failed to read %s %q: %w", ns.table, key, err)
	}

	entry := domain.CacheEntry{Key: key}
	if payload.Valid {
		entry.Payload = []byte(payload.String)
	}
	return entry, true, nil
}

// put upserts in autocommit mode, so the row is on disk when it returns.
// A nil payload stores NULL, the no-data sentinel.
func (c *Cache) put(ctx context.Context, ns namespace, key string, payload []byte) error {
	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s, json) VALUES (?, ?)", ns.table, ns.key)

	value := sql.NullString{String: string(payload), Valid: payload != nil}
	if _, err := c.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("cache: failed to write %s %q: %w", ns.table, key, err)
	}
	return nil
}

func (c *Cache) delete(ctx context.Context, ns namespace, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", ns.table, ns.key)
	if _, err := c.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("cache: failed to delete %s %q: %w", ns.table, key, err)
	}
	return nil
}

func (c *Cache) count(ctx context.Context, ns namespace) (total, noData int, err error) {
	query := fmt.Sprintf("SELECT COUNT(*), COUNT(*) - COUNT(json) FROM %s", ns.table)
	if err := c.db.QueryRowContext(ctx, query).Scan(&total, &noData); err != nil {
		return 0, 0, fmt.Errorf("cache: failed to count %s: %w", ns.table, err)
	}
	return total, noData, nil
}
