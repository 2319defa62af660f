package enrich

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/justestif/go-spotify-moodify/internal/cache"
	"github.com/justestif/go-spotify-moodify/internal/genius"
)

// LyricsStore is the subset of cache.LyricsCache used by CachedFetcher.
type LyricsStore interface {
	Get(ctx context.Context, artist, title string) (cache.Entry, bool, error)
	Put(ctx context.Context, artist, title, lyrics string, found bool) error
}

// CachedFetcher implements Fetcher with SQLite persistence.
// It checks the store first, then falls back to the wrapped Fetcher for
// misses. Found lyrics and not-found results are stored; transport errors
// and a missing provider are not.
type CachedFetcher struct {
	store  LyricsStore
	next   Fetcher
	logger *zap.Logger
}

// NewCachedFetcher wraps next with the given store.
func NewCachedFetcher(store LyricsStore, next Fetcher, logger *zap.Logger) *CachedFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{store: store, next: next, logger: logger}
}

// Fetch returns cached lyrics when available and fetches them otherwise.
func (c *CachedFetcher) Fetch(ctx context.Context, track, artist string) (string, error) {
	entry, ok, err := c.store.Get(ctx, artist, track)
	if err != nil {
		c.logger.Warn("lyrics cache read failed", zap.String("track", track), zap.Error(err))
	}
	if ok {
		if !entry.Found {
			return "", genius.ErrNotFound
		}
		return entry.Lyrics, nil
	}

	raw, err := c.next.Fetch(ctx, track, artist)
	switch {
	case err == nil:
		c.put(ctx, artist, track, raw, true)
	case errors.Is(err, genius.ErrNotFound):
		c.put(ctx, artist, track, "", false)
	}
	return raw, err
}

func (c *CachedFetcher) put(ctx context.Context, artist, track, raw string, found bool) {
	if err := c.store.Put(ctx, artist, track, raw, found); err != nil {
		c.logger.Warn("lyrics cache write failed", zap.String("track", track), zap.Error(err))
	}
}
