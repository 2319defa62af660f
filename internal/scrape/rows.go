package scrape

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/justestif/go-spotify-moodify/internal/enrich"
	"github.com/justestif/go-spotify-moodify/internal/mood"
	"github.com/justestif/go-spotify-moodify/internal/storage"
)

// maxLineSize bounds one JSON-lines record.
const maxLineSize = 1 << 20

// Header is the column order of the output CSV.
var Header = []string{"track_name", "artist_name", "play_count", "lyrics", "error"}

var rowAliases = map[string][]string{
	"track_name":  {"track_name", "title"},
	"artist_name": {"artist_name", "artist"},
	"play_count":  {"play_count", "playcount"},
	"lyrics":      {"lyrics"},
	"error":       {"error"},
}

// Item is one input track.
type Item struct {
	enrich.Track
	PlayCount string
}

// Row is one output record. Lyrics are raw, as returned by the provider.
type Row struct {
	enrich.Track
	PlayCount string
	Lyrics    string
	Error     string
}

type inputLine struct {
	TrackName  string      `json:"track_name"`
	ArtistName string      `json:"artist_name"`
	PlayCount  json.Number `json:"play_count"`
}

// ReadInput parses JSON lines of {"track_name", "artist_name", "play_count"}.
// Blank lines are skipped.
func ReadInput(r io.Reader) ([]Item, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var items []Item
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var in inputLine
		if err := json.Unmarshal([]byte(line), &in); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		items = append(items, Item{
			Track:     enrich.Track{Name: in.TrackName, Artist: in.ArtistName},
			PlayCount: in.PlayCount.String(),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return items, nil
}

// ReadInputFile reads JSON-lines input from path.
func ReadInputFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	items, err := ReadInput(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return items, nil
}

// ReadRows parses an output CSV. An empty file has no rows.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols, err := mood.ResolveColumns(header, rowAliases, "track_name", "artist_name")
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		rows = append(rows, Row{
			Track: enrich.Track{
				Name:   cell(record, cols, "track_name"),
				Artist: cell(record, cols, "artist_name"),
			},
			PlayCount: cell(record, cols, "play_count"),
			Lyrics:    cell(record, cols, "lyrics"),
			Error:     cell(record, cols, "error"),
		})
	}
	return rows, nil
}

// ReadRowsFile reads the output CSV at path. A missing file returns an
// error wrapping os.ErrNotExist.
func ReadRowsFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening output: %w", err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// WriteRows writes rows with a header.
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Name, r.Artist, r.PlayCount, r.Lyrics, r.Error}); err != nil {
			return fmt.Errorf("writing %q: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRowsFile replaces the file at path with rows.
func WriteRowsFile(path string, rows []Row) error {
	return storage.WriteFileAtomic(path, func(w io.Writer) error {
		return WriteRows(w, rows)
	})
}

func cell(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
