package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"github.com/justestif/go-spotify-moodify/internal/enrich"
)

const (
	maxTracksPerRequest = 100
	searchLimit         = 5
)

// NotFound is a requested track that could not be resolved to a Spotify ID.
type NotFound struct {
	Track  string `json:"track_name"`
	Artist string `json:"artist_name"`
	Reason string `json:"reason"`
}

// MaterializeResult reports what Materialize did. Error is set, and Success
// false, when the playlist could not be created or filled.
type MaterializeResult struct {
	Success     bool       `json:"success"`
	PlaylistID  string     `json:"playlist_id,omitempty"`
	PlaylistURL string     `json:"playlist_url,omitempty"`
	AddedCount  int        `json:"added_count"`
	NotFound    []NotFound `json:"not_found"`
	Error       string     `json:"error,omitempty"`
}

// Materialize creates a private playlist named name and fills it with the
// best Spotify match for each (track, artist) pair. Pairs with an empty
// track name are skipped. Unresolvable pairs are listed in NotFound and do
// not fail the call.
func (c *Client) Materialize(ctx context.Context, name, description string, pairs []enrich.Track) MaterializeResult {
	result := MaterializeResult{NotFound: []NotFound{}}

	playlistID, url, err := c.CreatePlaylist(ctx, name, description, false)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.PlaylistID = playlistID
	result.PlaylistURL = url

	var ids []string
	for _, pair := range pairs {
		title := strings.TrimSpace(pair.Name)
		if title == "" {
			continue
		}

		id, err := c.FindTrack(ctx, title, strings.TrimSpace(pair.Artist))
		if err != nil {
			if ctx.Err() != nil {
				result.Error = fmt.Sprintf("searching tracks: %v", ctx.Err())
				return result
			}
			result.NotFound = append(result.NotFound, NotFound{
				Track:  pair.Name,
				Artist: pair.Artist,
				Reason: notFoundReason(err),
			})
			continue
		}
		ids = append(ids, id)
	}

	if err := c.AddTracksToPlaylist(ctx, playlistID, ids); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.AddedCount = len(ids)
	c.logger.Info("playlist materialized",
		zap.String("playlist_id", playlistID),
		zap.Int("added", len(ids)),
		zap.Int("not_found", len(result.NotFound)))
	return result
}

func notFoundReason(err error) string {
	if errors.Is(err, ErrNoMatch) {
		return ErrNoMatch.Error()
	}
	return err.Error()
}

// FindTrack searches for a track by title and artist and returns the ID of
// the closest result.
func (c *Client) FindTrack(ctx context.Context, title, artist string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	res, err := c.api.Search(ctx, searchQuery(title, artist), spotify.SearchTypeTrack, spotify.Limit(searchLimit))
	if err != nil {
		return "", fmt.Errorf("searching %q: %w", title, err)
	}
	if res == nil || res.Tracks == nil {
		return "", NoMatchError{Title: title, Artist: artist}
	}

	best, confident, ok := bestCandidate(title, artist, res.Tracks.Tracks)
	if !ok {
		return "", NoMatchError{Title: title, Artist: artist}
	}
	if !confident {
		c.logger.Debug("using top search hit",
			zap.String("track", title),
			zap.String("artist", artist),
			zap.String("hit", best.Name))
	}
	return best.ID.String(), nil
}

// searchQuery builds a field-filtered query. Quotes inside values are
// dropped so they cannot end the filter early.
func searchQuery(title, artist string) string {
	q := fmt.Sprintf("track:%q", strings.ReplaceAll(title, `"`, ""))
	if artist != "" {
		q += fmt.Sprintf(" artist:%q", strings.ReplaceAll(artist, `"`, ""))
	}
	return q
}

// CreatePlaylist creates a new playlist for the current user.
// Returns the playlist ID and its web URL.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, string, error) {
	userID, err := c.UserID(ctx)
	if err != nil {
		return "", "", err
	}

	playlist, err := c.api.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return "", "", fmt.Errorf("creating playlist: %w", err)
	}

	return playlist.ID.String(), playlist.ExternalURLs["spotify"], nil
}

// AddTracksToPlaylist adds tracks to a playlist, handling batching for large sets.
// Spotify allows max 100 tracks per request.
func (c *Client) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))

		_, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids[i:end]...)
		if err != nil {
			return fmt.Errorf("adding tracks (batch %d-%d): %w", i+1, end, err)
		}
	}

	return nil
}
