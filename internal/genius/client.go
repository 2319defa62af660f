package genius

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	baseURL   = "https://api.genius.com"
	userAgent = "moodify/1.0"
)

// Sentinel errors. Their messages are recorded verbatim on enriched tracks.
var (
	// ErrNotConfigured is returned when no access token is available.
	ErrNotConfigured = errors.New("genius: lyrics provider not configured")

	// ErrNotFound is returned when no song page matches or the page has no lyrics.
	ErrNotFound = errors.New("genius: lyrics not found or empty")

	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("genius: rate limit exceeded")

	// ErrUnauthorized is returned when the access token is rejected.
	ErrUnauthorized = errors.New("genius: access token rejected")
)

// nonSongTerms mark search hits that are Genius meta pages rather than songs.
var nonSongTerms = []string{
	"tracklist",
	"track list",
	"album art",
	"liner notes",
	"credits",
	"setlist",
	"interview",
}

// Client is a Genius lyrics client.
type Client struct {
	token       string
	httpClient  *http.Client
	baseURL     string
	retryDelays []time.Duration
}

// NewClient creates a new Genius client from the provided configuration.
func NewClient(cfg *Config) *Client {
	return &Client{
		token: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:     baseURL,
		retryDelays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// Fetch returns the raw lyrics for a track. It searches for the song,
// picks the best song hit and scrapes the lyrics from its page.
func (c *Client) Fetch(ctx context.Context, track, artist string) (string, error) {
	if c == nil || c.token == "" {
		return "", ErrNotConfigured
	}

	query := strings.TrimSpace(track + " " + firstArtist(artist))
	if query == "" {
		return "", ErrNotFound
	}

	song, err := c.search(ctx, query, track, artist)
	if err != nil {
		return "", err
	}

	page, err := c.doRequest(ctx, song.URL, false)
	if err != nil {
		return "", fmt.Errorf("genius: fetching lyrics page: %w", err)
	}

	lyrics, err := parseLyrics(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("genius: %w", err)
	}
	if lyrics == "" {
		return "", ErrNotFound
	}
	return lyrics, nil
}

// search finds the song page that best matches track and artist.
func (c *Client) search(ctx context.Context, query, track, artist string) (Song, error) {
	params := url.Values{"q": {query}}

	body, err := c.doRequest(ctx, c.baseURL+"/search?"+params.Encode(), true)
	if err != nil {
		if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnauthorized) {
			return Song{}, err
		}
		return Song{}, fmt.Errorf("genius: searching: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Song{}, fmt.Errorf("genius: parsing search response: %w", err)
	}

	song, ok := bestHit(resp, track, artist)
	if !ok {
		return Song{}, ErrNotFound
	}
	return song, nil
}

// bestHit prefers a song hit by the requested artist, then one with the
// requested title, then the first song hit.
func bestHit(resp searchResponse, track, artist string) (Song, bool) {
	var songs []Song
	for _, hit := range resp.Response.Hits {
		if hit.Type != "" && hit.Type != "song" {
			continue
		}
		if hit.Result.URL == "" || isNonSong(hit.Result.Title) {
			continue
		}
		songs = append(songs, hit.Result)
	}
	if len(songs) == 0 {
		return Song{}, false
	}

	wantArtist := fold(firstArtist(artist))
	wantTitle := fold(track)

	if wantArtist != "" {
		for _, s := range songs {
			name := fold(s.PrimaryArtist.Name)
			if name != "" && (strings.Contains(name, wantArtist) || strings.Contains(wantArtist, name)) {
				return s, true
			}
		}
	}
	if wantTitle != "" {
		for _, s := range songs {
			if strings.Contains(fold(s.Title), wantTitle) {
				return s, true
			}
		}
	}
	return songs[0], true
}

func isNonSong(title string) bool {
	t := fold(title)
	for _, term := range nonSongTerms {
		if strings.Contains(t, term) {
			return true
		}
	}
	return false
}

// firstArtist returns the first name of a ", "-joined artist list.
func firstArtist(artist string) string {
	name, _, _ := strings.Cut(artist, ", ")
	return strings.TrimSpace(name)
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// doRequest performs an HTTP GET request with retry on rate limit.
// Retries with fixed backoff (1s, 2s, 4s by default).
func (c *Client) doRequest(ctx context.Context, reqURL string, authorized bool) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL, authorized)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}

		// Non-retryable error
		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string, authorized bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case authorized && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden):
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
