// Package cache persists fetched lyrics in SQLite so repeated runs over the
// same listening history do not hit the lyrics provider again.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultTTL is how long a cached lookup stays valid.
const DefaultTTL = 30 * 24 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS lyrics (
	artist     TEXT NOT NULL,
	title      TEXT NOT NULL,
	lyrics     TEXT,
	found      INTEGER NOT NULL DEFAULT 0,
	fetched_at INTEGER NOT NULL,
	PRIMARY KEY (artist, title)
)`

// Entry is a cached lookup. A not-found result is cached too, with Found false.
type Entry struct {
	Lyrics    string
	Found     bool
	FetchedAt time.Time
}

// LyricsCache is a SQLite-backed lyrics cache keyed by lowercased (artist, title).
type LyricsCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens (creating if needed) the cache database at path.
// A non-positive ttl uses DefaultTTL.
func Open(path string, ttl time.Duration) (*LyricsCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &LyricsCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached entry for (artist, title). The bool is false when
// nothing is cached or the entry is older than the TTL.
func (c *LyricsCache) Get(ctx context.Context, artist, title string) (Entry, bool, error) {
	var (
		lyrics    sql.NullString
		found     int
		fetchedAt int64
	)

	err := c.db.QueryRowContext(ctx,
		"SELECT lyrics, found, fetched_at FROM lyrics WHERE artist = ? AND title = ?",
		key(artist), key(title),
	).Scan(&lyrics, &found, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading cached lyrics: %w", err)
	}

	entry := Entry{
		Lyrics:    lyrics.String,
		Found:     found == 1,
		FetchedAt: time.Unix(fetchedAt, 0),
	}
	if c.now().Sub(entry.FetchedAt) > c.ttl {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Put stores the result of a lookup, replacing any previous entry.
func (c *LyricsCache) Put(ctx context.Context, artist, title, lyrics string, found bool) error {
	foundInt := 0
	if found {
		foundInt = 1
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO lyrics (artist, title, lyrics, found, fetched_at)
		 VALUES (?, ?, ?, ?, ?)`,
		key(artist), key(title), lyrics, foundInt, c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cached lyrics: %w", err)
	}
	return nil
}

// Stats returns the number of cached entries and how many had lyrics.
func (c *LyricsCache) Stats(ctx context.Context) (total, found int, err error) {
	err = c.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(found), 0) FROM lyrics",
	).Scan(&total, &found)
	if err != nil {
		return 0, 0, fmt.Errorf("counting cached lyrics: %w", err)
	}
	return total, found, nil
}

// Close closes the database.
func (c *LyricsCache) Close() error {
	return c.db.Close()
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
