package mood

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/justestif/go-spotify-moodify/internal/enrich"
)

// ErrMissingColumn is returned when a required library column is absent.
var ErrMissingColumn = errors.New("missing column")

// LibraryEntry is a reference track pre-labeled with an emotion.
type LibraryEntry struct {
	enrich.Track
	Emotion Emotion `json:"emotion"`
}

// Column aliases, in preference order.
var (
	trackColumns   = []string{"track_name", "title"}
	artistColumns  = []string{"artist_name", "artist"}
	emotionColumns = []string{"emotion", "pred_emotion", "true_emotion"}
)

// LoadLibrary reads a labeled library CSV file.
func LoadLibrary(path string) ([]LibraryEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening library: %w", err)
	}
	defer f.Close()

	entries, err := ReadLibrary(f)
	if err != nil {
		return nil, fmt.Errorf("reading library %s: %w", path, err)
	}
	return entries, nil
}

// ReadLibrary parses a labeled library. The header must name a track, an
// artist and an emotion column (aliases: title, artist, pred_emotion,
// true_emotion). Emotions are lowercased.
func ReadLibrary(r io.Reader) ([]LibraryEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: track_name", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols, err := ResolveColumns(header, map[string][]string{
		"track_name":  trackColumns,
		"artist_name": artistColumns,
		"emotion":     emotionColumns,
	}, "track_name", "artist_name", "emotion")
	if err != nil {
		return nil, err
	}

	entries := []LibraryEntry{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(entries)+2, err)
		}

		entries = append(entries, LibraryEntry{
			Track: enrich.Track{
				Name:   field(record, cols["track_name"]),
				Artist: field(record, cols["artist_name"]),
			},
			Emotion: ParseEmotion(field(record, cols["emotion"])),
		})
	}
	return entries, nil
}

// ResolveColumns maps canonical column names to header indexes using the
// first alias present. Header names are compared case-insensitively.
// Every name in required must resolve or ErrMissingColumn is returned.
func ResolveColumns(header []string, aliases map[string][]string, required ...string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	cols := make(map[string]int, len(aliases))
	for canonical, names := range aliases {
		for _, name := range names {
			if i, ok := index[name]; ok {
				cols[canonical] = i
				break
			}
		}
	}

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
