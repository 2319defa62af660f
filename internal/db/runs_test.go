package db

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestTrackColumns(t *testing.T) {
	runID := uuid.New()
	happy := "happy"
	tracks := []RunTrack{
		{TrackName: "a", ArtistName: "x", CleanLyrics: "la la", Emotion: &happy},
		{TrackName: "b", ArtistName: "y", Error: "genius: lyrics not found or empty", Position: 99},
	}

	cols := trackColumns(runID, tracks)

	if len(cols.positions) != 2 || cols.positions[0] != 0 || cols.positions[1] != 1 {
		t.Errorf("positions = %v, want [0 1]", cols.positions)
	}
	if cols.names[1] != "b" || cols.artists[0] != "x" {
		t.Errorf("names = %v, artists = %v", cols.names, cols.artists)
	}
	if cols.lyrics[0] != "la la" || cols.errors[1] == "" {
		t.Errorf("lyrics = %v, errors = %v", cols.lyrics, cols.errors)
	}
	if cols.emotions[0] == nil || *cols.emotions[0] != "happy" || cols.emotions[1] != nil {
		t.Errorf("emotions = %v", cols.emotions)
	}
	for i, tr := range tracks {
		if tr.RunID != runID {
			t.Errorf("track %d RunID not set", i)
		}
		if tr.Position != i {
			t.Errorf("track %d Position = %d", i, tr.Position)
		}
	}
}

func TestSchema(t *testing.T) {
	for _, table := range []string{"runs", "run_tracks"} {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Errorf("schema does not create %s", table)
		}
	}
}
