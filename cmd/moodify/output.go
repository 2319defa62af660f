package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/justestif/go-spotify-moodify/internal/db"
	"github.com/justestif/go-spotify-moodify/internal/mood"
	"github.com/justestif/go-spotify-moodify/internal/pipeline"
)

func printRecent(w io.Writer, r *pipeline.RecentResult) {
	fmt.Fprintf(w, "Your %d most recent tracks (%d with lyrics)\n\n", len(r.Tracks), r.LyricsCount)
	for i, t := range r.Tracks {
		status := "lyrics ok"
		if t.CleanLyrics == "" {
			status = "lyrics failed"
			if t.Error != "" {
				status += ": " + t.Error
			}
		}
		fmt.Fprintf(w, "%2d. %s - %s [%s]\n", i+1, t.Name, t.Artist, status)
	}

	fmt.Fprintf(w, "\nSaved:\n  %s\n  %s\n  %s\n", r.Files.Raw, r.Files.Lyrics, r.Files.Cleaned)
	if !r.LyricsEnabled {
		fmt.Fprintln(w, "\nNote: GENIUS_ACCESS_TOKEN is not configured, so lyrics fetching is disabled.")
	}
}

func printMood(w io.Writer, r *pipeline.MoodResult) {
	fmt.Fprintf(w, "Overall mood: %s\n", r.Summary())
	fmt.Fprintf(w, "%s: %s\n\n", r.Description.Name, r.Description.Summary)

	for _, e := range mood.Emotions {
		if n := r.Counts[e]; n > 0 {
			fmt.Fprintf(w, "  %-10s %s %d\n", e, strings.Repeat("#", n), n)
		}
	}

	if len(r.Groups) > 0 {
		fmt.Fprintln(w, "\nSub-moods:")
		for _, g := range r.Groups {
			fmt.Fprintf(w, "  %s (%d tracks)\n", g.Name, len(g.Tracks))
		}
	}

	var failed []mood.ClassifiedTrack
	for _, t := range r.Tracks {
		if t.ClassifyError != "" {
			failed = append(failed, t)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(w, "\n%d tracks could not be classified:\n", len(failed))
		for _, t := range failed {
			fmt.Fprintf(w, "  %s - %s: %s\n", t.Name, t.Artist, t.ClassifyError)
		}
	}
}

func printRecommendation(w io.Writer, r *pipeline.Recommendation) {
	fmt.Fprintf(w, "Mood: %s\n%s: %s\n\n", r.Analysis.Summary(), r.Description.Name, r.Description.Summary)
	if len(r.Tracks) == 0 {
		fmt.Fprintln(w, "No unheard tracks in the library match this mood.")
		return
	}
	for i, t := range r.Tracks {
		fmt.Fprintf(w, "%2d. %s - %s\n", i+1, t.Name, t.Artist)
	}
}

func printPlaylist(w io.Writer, r *pipeline.PlaylistResult) {
	if !r.Success {
		fmt.Fprintf(w, "Playlist %q failed: %s\n", r.Name, r.Error)
	} else {
		fmt.Fprintf(w, "Created playlist %q with %d tracks\n", r.Name, r.AddedCount)
		if r.PlaylistURL != "" {
			fmt.Fprintln(w, r.PlaylistURL)
		}
	}

	if len(r.NotFound) > 0 {
		fmt.Fprintf(w, "\n%d tracks not found on Spotify:\n", len(r.NotFound))
		for _, nf := range r.NotFound {
			fmt.Fprintf(w, "  %s - %s (%s)\n", nf.Track, nf.Artist, nf.Reason)
		}
	}
}

func printRuns(w io.Writer, runs []db.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %-8s %d tracks", r.ID, r.StartedAt.Format(time.DateTime), r.Kind, r.TrackCount)
		if r.OverallMood != nil {
			fmt.Fprintf(w, ", mood %s", *r.OverallMood)
		}
		if r.PlaylistID != nil {
			fmt.Fprintf(w, ", playlist %s", *r.PlaylistID)
		}
		fmt.Fprintln(w)
	}
}

func printRun(w io.Writer, r *db.Run, tracks []db.RunTrack) {
	printRuns(w, []db.Run{*r})
	fmt.Fprintln(w)
	for _, t := range tracks {
		label := "-"
		if t.Emotion != nil {
			label = *t.Emotion
		}
		fmt.Fprintf(w, "%2d. %s - %s [%s]", t.Position+1, t.TrackName, t.ArtistName, label)
		if t.Error != "" {
			fmt.Fprintf(w, " %s", t.Error)
		}
		fmt.Fprintln(w)
	}
}
