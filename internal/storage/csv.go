package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/justestif/go-spotify-moodify/internal/enrich"
	"github.com/justestif/go-spotify-moodify/internal/mood"
)

// CleanedHeader is the column order of the cleaned CSV.
var CleanedHeader = []string{"track_name", "artist_name", "clean_lyrics", "error"}

var cleanedAliases = map[string][]string{
	"track_name":   {"track_name", "title"},
	"artist_name":  {"artist_name", "artist"},
	"clean_lyrics": {"clean_lyrics", "lyrics_clean", "lyrics"},
	"error":        {"error", "lyrics_error"},
}

// WriteCleanedCSV writes tracks with their cleaned lyrics. Raw lyrics are
// not included.
func WriteCleanedCSV(w io.Writer, tracks []enrich.EnrichedTrack) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CleanedHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, t := range tracks {
		if err := cw.Write([]string{t.Name, t.Artist, t.CleanLyrics, t.Error}); err != nil {
			return fmt.Errorf("writing %q: %w", t.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCleanedCSV parses a cleaned CSV. track_name and artist_name are
// required; clean_lyrics and error may be absent. Cell values are returned
// exactly as stored.
func ReadCleanedCSV(r io.Reader) ([]enrich.EnrichedTrack, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []enrich.EnrichedTrack{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols, err := mood.ResolveColumns(header, cleanedAliases, "track_name", "artist_name")
	if err != nil {
		return nil, err
	}

	tracks := []enrich.EnrichedTrack{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(tracks)+2, err)
		}

		tracks = append(tracks, enrich.EnrichedTrack{
			Track: enrich.Track{
				Name:   cell(record, cols, "track_name"),
				Artist: cell(record, cols, "artist_name"),
			},
			CleanLyrics: cell(record, cols, "clean_lyrics"),
			Error:       cell(record, cols, "error"),
		})
	}
	return tracks, nil
}

func cell(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
