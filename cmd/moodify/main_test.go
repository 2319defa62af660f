package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-spotify-moodify/internal/config"
	"github.com/justestif/go-spotify-moodify/internal/db"
	"github.com/justestif/go-spotify-moodify/internal/enrich"
	"github.com/justestif/go-spotify-moodify/internal/mood"
	"github.com/justestif/go-spotify-moodify/internal/pipeline"
	"github.com/justestif/go-spotify-moodify/internal/spotify"
)

func testApp(t *testing.T, cfg config.Config) *app {
	t.Helper()
	a, err := newApp(cfg, false)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestRootCommands(t *testing.T) {
	root, cleanup := newRootCmd()
	defer cleanup()

	want := []string{"serve", "recent", "mood", "recommend", "playlist", "scrape", "history", "logout"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, cmd, err)
		}
	}
}

func TestFetcher_Disabled(t *testing.T) {
	a := testApp(t, config.Default())

	f, err := a.fetcher()
	if err != nil {
		t.Fatalf("fetcher() error = %v", err)
	}
	if _, ok := f.(enrich.DisabledFetcher); !ok {
		t.Errorf("fetcher() = %T, want DisabledFetcher", f)
	}
}

func TestFetcher_Cached(t *testing.T) {
	cfg := config.Default()
	cfg.GeniusToken = "token"
	cfg.CachePath = filepath.Join(t.TempDir(), "cache.db")
	a := testApp(t, cfg)

	f, err := a.fetcher()
	if err != nil {
		t.Fatalf("fetcher() error = %v", err)
	}
	if _, ok := f.(*enrich.CachedFetcher); !ok {
		t.Errorf("fetcher() = %T, want *CachedFetcher", f)
	}
	if len(a.closers) != 1 {
		t.Errorf("closers = %d, want 1", len(a.closers))
	}
}

func TestClassifierFactory_NoToken(t *testing.T) {
	a := testApp(t, config.Default())

	_, err := a.classifierFactory()()
	if !errors.Is(err, pipeline.ErrClassifierUnavailable) {
		t.Errorf("error = %v, want ErrClassifierUnavailable", err)
	}
}

func TestClassifierFactory(t *testing.T) {
	cfg := config.Default()
	cfg.HFToken = "hf"
	a := testApp(t, cfg)

	c, err := a.classifierFactory()()
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}
	if !c.Available() {
		t.Error("Available() = false")
	}
}

func TestNewPipeline_NeedsSpotifyCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	a := testApp(t, cfg)

	_, err := a.newPipeline(t.Context(), true)
	if !isUnavailable(err) {
		t.Errorf("error = %v, want a missing-capability error", err)
	}

	p, err := a.newPipeline(t.Context(), false)
	if err != nil {
		t.Fatalf("newPipeline() error = %v", err)
	}
	if p.LyricsEnabled() {
		t.Error("LyricsEnabled() = true without a Genius token")
	}
}

func TestRunHistory_NoDatabase(t *testing.T) {
	a := testApp(t, config.Default())

	if _, err := a.runHistory(t.Context()); !errors.Is(err, errNoDatabase) {
		t.Errorf("runHistory() error = %v, want errNoDatabase", err)
	}
}

func TestPrintRuns(t *testing.T) {
	happy := "happy"
	run := db.Run{
		ID:          uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
		Kind:        db.KindMood,
		StartedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		TrackCount:  3,
		OverallMood: &happy,
	}

	var buf bytes.Buffer
	printRun(&buf, &run, []db.RunTrack{
		{Position: 0, TrackName: "T", ArtistName: "A", Emotion: &happy},
		{Position: 1, TrackName: "U", ArtistName: "B", Error: "cleaned lyrics empty"},
	})

	out := buf.String()
	for _, want := range []string{
		"7d444840-9dc0-11d1-b245-5ffdce74fad2  2026-01-02 03:04:05  mood     3 tracks, mood happy",
		" 1. T - A [happy]",
		" 2. U - B [-] cleaned lyrics empty",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printRuns(&buf, nil)
	if !strings.Contains(buf.String(), "No runs recorded yet.") {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestScrapeOutput(t *testing.T) {
	got := scrapeOutput(filepath.Join("data", "top1000HitSongs.json"))
	if want := filepath.Join("data", "tracks_with_lyrics.csv"); got != want {
		t.Errorf("scrapeOutput() = %q, want %q", got, want)
	}
}

func TestPrintPlaylist(t *testing.T) {
	var buf bytes.Buffer
	printPlaylist(&buf, &pipeline.PlaylistResult{
		MaterializeResult: spotify.MaterializeResult{
			Success:    true,
			AddedCount: 2,
			NotFound:   []spotify.NotFound{{Track: "Gone", Artist: "X", Reason: "no matching track"}},
		},
		Name: "Mix",
	})

	out := buf.String()
	for _, want := range []string{`Created playlist "Mix" with 2 tracks`, "Gone - X (no matching track)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintMood(t *testing.T) {
	var buf bytes.Buffer
	printMood(&buf, &pipeline.MoodResult{
		Analysis: mood.Analysis{
			OverallMood: mood.Happy,
			Counts:      map[mood.Emotion]int{mood.Happy: 2, mood.Sad: 1},
			Tracks: []mood.ClassifiedTrack{
				{EnrichedTrack: enrich.EnrichedTrack{Track: enrich.Track{Name: "T", Artist: "A"}}, ClassifyError: "timeout"},
			},
		},
		Description: mood.Describe(mood.Happy),
	})

	out := buf.String()
	for _, want := range []string{"Overall mood: happy (2 of 3 tracks)", "happy      ## 2", "T - A: timeout"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
