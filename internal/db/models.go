package db

import (
	"time"

	"github.com/google/uuid"
)

// Run kinds.
const (
	KindRecent   = "recent"
	KindMood     = "mood"
	KindPlaylist = "playlist"
	KindScrape   = "scrape"
)

// Run is one pipeline invocation.
type Run struct {
	ID          uuid.UUID
	Kind        string
	StartedAt   time.Time
	TrackCount  int
	LyricsCount int     // tracks with usable clean lyrics
	OverallMood *string // nullable - set once the batch is classified
	PlaylistID  *string // nullable - Spotify playlist ID if created
}

// RunTrack is one track processed by a run, in input order.
type RunTrack struct {
	RunID       uuid.UUID
	Position    int
	TrackName   string
	ArtistName  string
	CleanLyrics string
	Error       string
	Emotion     *string // nullable
}
