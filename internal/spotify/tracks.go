package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"github.com/justestif/go-spotify-moodify/internal/enrich"
)

// Bounds for the recently played endpoint.
const (
	DefaultRecentLimit = 20
	maxRecentLimit     = 50
)

// RecentlyPlayed returns the user's most recently played tracks, most recent
// first. limit is clamped to 1..50.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]enrich.Track, error) {
	limit = clampLimit(limit)

	items, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: spotify.Numeric(limit)})
	if err != nil {
		return nil, fmt.Errorf("fetching recently played: %w", err)
	}

	tracks := make([]enrich.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, convertTrack(item.Track))
	}

	c.logger.Debug("fetched recently played", zap.Int("tracks", len(tracks)))
	return tracks, nil
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	return min(limit, maxRecentLimit)
}

// convertTrack converts a Spotify SimpleTrack to enrich.Track.
func convertTrack(track spotify.SimpleTrack) enrich.Track {
	return enrich.Track{
		Name:   track.Name,
		Artist: joinArtists(track.Artists),
	}
}

func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
