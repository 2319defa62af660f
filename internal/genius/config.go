// Package genius fetches song lyrics from Genius: the public API finds the
// song page and the lyrics are scraped from its HTML.
package genius

import "errors"

// ErrMissingToken is returned when no Genius access token is configured.
var ErrMissingToken = errors.New("missing GENIUS_ACCESS_TOKEN environment variable")

// Config holds Genius API configuration.
type Config struct {
	AccessToken string
}
