// Package storage persists pipeline outputs as files in a data directory.
//
// Every write goes to a temp file in the same directory and is renamed into
// place, so readers only ever see complete files.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/justestif/go-spotify-moodify/internal/enrich"
	"github.com/justestif/go-spotify-moodify/internal/mood"
)

// File names inside the data directory.
const (
	RecentFile     = "recent_tracks.json"
	EnrichedFile   = "recent_tracks_with_lyrics.json"
	CleanedFile    = "recent_tracks_cleaned.csv"
	ClassifiedFile = "recent_tracks_classified.json"
)

// ErrNoData is returned when a requested file has not been written yet.
var ErrNoData = errors.New("no saved data")

// Store reads and writes pipeline files under one directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the full path of a file in the data directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// SaveRecent writes the raw listening history.
func (s *Store) SaveRecent(tracks []enrich.Track) error {
	if tracks == nil {
		tracks = []enrich.Track{}
	}
	return s.writeJSON(RecentFile, tracks)
}

// LoadRecent reads the raw listening history.
func (s *Store) LoadRecent() ([]enrich.Track, error) {
	var tracks []enrich.Track
	if err := s.readJSON(RecentFile, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// SaveEnriched writes enriched tracks both as JSON (with raw lyrics) and as
// the cleaned CSV the classifier reads.
func (s *Store) SaveEnriched(tracks []enrich.EnrichedTrack) error {
	if tracks == nil {
		tracks = []enrich.EnrichedTrack{}
	}
	if err := s.writeJSON(EnrichedFile, tracks); err != nil {
		return err
	}
	return WriteFileAtomic(s.Path(CleanedFile), func(w io.Writer) error {
		return WriteCleanedCSV(w, tracks)
	})
}

// LoadEnriched reads the enriched JSON file.
func (s *Store) LoadEnriched() ([]enrich.EnrichedTrack, error) {
	var tracks []enrich.EnrichedTrack
	if err := s.readJSON(EnrichedFile, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// LoadCleaned reads the cleaned CSV file.
func (s *Store) LoadCleaned() ([]enrich.EnrichedTrack, error) {
	f, err := s.open(CleanedFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tracks, err := ReadCleanedCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", CleanedFile, err)
	}
	return tracks, nil
}

// SaveAnalysis writes the classified tracks and their aggregate mood.
func (s *Store) SaveAnalysis(a mood.Analysis) error {
	return s.writeJSON(ClassifiedFile, a)
}

// LoadAnalysis reads the last saved analysis.
func (s *Store) LoadAnalysis() (mood.Analysis, error) {
	var a mood.Analysis
	if err := s.readJSON(ClassifiedFile, &a); err != nil {
		return mood.Analysis{}, err
	}
	return a, nil
}

func (s *Store) open(name string) (*os.File, error) {
	f, err := os.Open(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoData, name)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return f, nil
}

func (s *Store) writeJSON(name string, v any) error {
	return WriteFileAtomic(s.Path(name), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding %s: %w", name, err)
		}
		return nil
	})
}

func (s *Store) readJSON(name string, v any) error {
	f, err := s.open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

// WriteFileAtomic writes path through a temp file in the same directory,
// creating the directory if needed.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
