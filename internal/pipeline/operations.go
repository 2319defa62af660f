package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/justestif/go-spotify-moodify/internal/db"
	"github.com/justestif/go-spotify-moodify/internal/enrich"
	"github.com/justestif/go-spotify-moodify/internal/mood"
	"github.com/justestif/go-spotify-moodify/internal/spotify"
	"github.com/justestif/go-spotify-moodify/internal/storage"
)

// Playlist defaults used when the caller leaves name or description empty.
const (
	DefaultRecentPlaylistName        = "Imported Recent Tracks"
	DefaultRecentPlaylistDescription = "Imported from recent tracks via Moodify"
)

// Files lists the paths written by RunRecent.
type Files struct {
	Raw     string `json:"raw"`
	Lyrics  string `json:"lyrics_json"`
	Cleaned string `json:"cleaned_csv"`
}

// RecentResult is the outcome of RunRecent.
type RecentResult struct {
	Tracks        []enrich.EnrichedTrack `json:"tracks"`
	LyricsEnabled bool                   `json:"lyrics_enabled"`
	LyricsCount   int                    `json:"lyrics_count"`
	Files         Files                  `json:"files"`
	RunID         string                 `json:"run_id,omitempty"`
}

// MoodResult is the outcome of AnalyzeMood.
type MoodResult struct {
	mood.Analysis
	Description mood.Description `json:"description"`
	RunID       string           `json:"run_id,omitempty"`
}

// Recommendation is the outcome of Recommend.
type Recommendation struct {
	Mood        mood.Emotion        `json:"mood"`
	Description mood.Description    `json:"description"`
	Analysis    MoodResult          `json:"analysis"`
	Tracks      []mood.LibraryEntry `json:"tracks"`
}

// PlaylistResult is the outcome of a playlist operation.
type PlaylistResult struct {
	spotify.MaterializeResult
	Name  string `json:"name"`
	RunID string `json:"run_id,omitempty"`
}

// RunRecent fetches listening history, attaches cleaned lyrics and saves
// both to the data directory. Tracks whose lyrics could not be fetched are
// kept with their error.
func (s *Service) RunRecent(ctx context.Context, limit int) (*RecentResult, error) {
	if s.spotify == nil {
		return nil, stageErr(StageHistory, ErrSpotifyUnavailable)
	}

	tracks, err := s.spotify.RecentlyPlayed(ctx, limit)
	if err != nil {
		return nil, stageErr(StageHistory, err)
	}
	s.logger.Info("fetched recent tracks", zap.Int("count", len(tracks)))

	if err := s.store.SaveRecent(tracks); err != nil {
		return nil, stageErr(StagePersist, err)
	}

	enriched, err := s.enricher.Enrich(ctx, tracks)
	if err != nil {
		return nil, stageErr(StageEnrich, err)
	}
	if err := s.store.SaveEnriched(enriched); err != nil {
		return nil, stageErr(StagePersist, err)
	}

	result := &RecentResult{
		Tracks:        enriched,
		LyricsEnabled: s.LyricsEnabled(),
		LyricsCount:   countLyrics(enriched),
		Files: Files{
			Raw:     s.store.Path(storage.RecentFile),
			Lyrics:  s.store.Path(storage.EnrichedFile),
			Cleaned: s.store.Path(storage.CleanedFile),
		},
	}
	if result.Tracks == nil {
		result.Tracks = []enrich.EnrichedTrack{}
	}

	run := newRun(db.KindRecent)
	run.TrackCount = len(enriched)
	run.LyricsCount = result.LyricsCount
	result.RunID = s.record(ctx, run, enrichedRunTracks(enriched))

	s.logger.Info("recent tracks enriched",
		zap.Int("tracks", len(enriched)),
		zap.Int("with_lyrics", result.LyricsCount),
		zap.Bool("lyrics_enabled", result.LyricsEnabled),
	)
	return result, nil
}

// AnalyzeMood classifies the saved cleaned lyrics, aggregates the overall
// mood and saves the analysis.
func (s *Service) AnalyzeMood(ctx context.Context) (*MoodResult, error) {
	classifier, err := s.moodClassifier()
	if err != nil {
		return nil, stageErr(StageClassify, err)
	}

	tracks, err := s.store.LoadCleaned()
	if err != nil {
		if errors.Is(err, storage.ErrNoData) {
			err = fmt.Errorf("%w: fetch recent tracks first", err)
		}
		return nil, stageErr(StageLoad, err)
	}
	if countLyrics(tracks) == 0 {
		return nil, stageErr(StageClassify, ErrNoLyrics)
	}

	classified, err := classifier.ClassifyTracks(ctx, tracks)
	if err != nil {
		return nil, stageErr(StageClassify, err)
	}

	analysis := mood.Analyze(classified, s.groupConfig)
	if err := s.store.SaveAnalysis(analysis); err != nil {
		return nil, stageErr(StagePersist, err)
	}

	result := &MoodResult{
		Analysis:    analysis,
		Description: mood.Describe(analysis.OverallMood),
	}

	run := newRun(db.KindMood)
	run.TrackCount = len(tracks)
	run.LyricsCount = len(classified)
	run.OverallMood = optional(string(analysis.OverallMood))
	result.RunID = s.record(ctx, run, classifiedRunTracks(classified))

	s.logger.Info("mood analyzed",
		zap.String("mood", string(analysis.OverallMood)),
		zap.String("summary", analysis.Summary()),
		zap.Int("groups", len(analysis.Groups)),
	)
	return result, nil
}

// Recommend analyzes the current mood and picks up to k unseen library
// tracks labeled with it. A non-positive k means mood.DefaultK.
func (s *Service) Recommend(ctx context.Context, k int) (*Recommendation, error) {
	if k <= 0 {
		k = mood.DefaultK
	}

	analysis, err := s.AnalyzeMood(ctx)
	if err != nil {
		return nil, err
	}

	library, err := mood.LoadLibrary(s.libraryPath)
	if err != nil {
		return nil, stageErr(StageLibrary, err)
	}

	picks := mood.Recommend(analysis.OverallMood, mood.SeenKeys(analysis.Tracks), library, k, s.seed)
	s.logger.Info("recommended tracks",
		zap.String("mood", string(analysis.OverallMood)),
		zap.Int("library", len(library)),
		zap.Int("picked", len(picks)),
	)

	return &Recommendation{
		Mood:        analysis.OverallMood,
		Description: analysis.Description,
		Analysis:    *analysis,
		Tracks:      picks,
	}, nil
}

// CreatePlaylistFromRecent puts the saved recent tracks into a new private
// playlist.
func (s *Service) CreatePlaylistFromRecent(ctx context.Context, name, description string) (*PlaylistResult, error) {
	if s.spotify == nil {
		return nil, stageErr(StagePlaylist, ErrSpotifyUnavailable)
	}

	tracks, err := s.store.LoadRecent()
	if err != nil {
		if errors.Is(err, storage.ErrNoData) {
			err = fmt.Errorf("%w: no %s found, fetch recent tracks first", err, storage.RecentFile)
		}
		return nil, stageErr(StageLoad, err)
	}

	if name == "" {
		name = DefaultRecentPlaylistName
	}
	if description == "" {
		description = DefaultRecentPlaylistDescription
	}
	return s.materialize(ctx, name, description, tracks, nil)
}

// CreateMoodPlaylist recommends k tracks for the current mood and puts them
// into a new private playlist named after the mood.
func (s *Service) CreateMoodPlaylist(ctx context.Context, name, description string, k int) (*PlaylistResult, error) {
	if s.spotify == nil {
		return nil, stageErr(StagePlaylist, ErrSpotifyUnavailable)
	}

	rec, err := s.Recommend(ctx, k)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = rec.Description.Name
	}
	if description == "" {
		description = rec.Description.Summary
	}

	pairs := make([]enrich.Track, len(rec.Tracks))
	for i, e := range rec.Tracks {
		pairs[i] = e.Track
	}
	return s.materialize(ctx, name, description, pairs, optional(string(rec.Mood)))
}

func (s *Service) materialize(ctx context.Context, name, description string, pairs []enrich.Track, overall *string) (*PlaylistResult, error) {
	res := s.spotify.Materialize(ctx, name, description, pairs)
	if !res.Success {
		s.logger.Warn("playlist creation failed", zap.String("name", name), zap.String("error", res.Error))
		return &PlaylistResult{MaterializeResult: res, Name: name}, stageErr(StagePlaylist, errors.New(res.Error))
	}

	result := &PlaylistResult{MaterializeResult: res, Name: name}

	run := newRun(db.KindPlaylist)
	run.TrackCount = len(pairs)
	run.OverallMood = overall
	run.PlaylistID = optional(res.PlaylistID)
	result.RunID = s.record(ctx, run, pairRunTracks(pairs))

	s.logger.Info("playlist created",
		zap.String("name", name),
		zap.String("id", res.PlaylistID),
		zap.Int("added", res.AddedCount),
		zap.Int("not_found", len(res.NotFound)),
	)
	return result, nil
}

func countLyrics(tracks []enrich.EnrichedTrack) int {
	n := 0
	for _, t := range tracks {
		if t.CleanLyrics != "" {
			n++
		}
	}
	return n
}

func enrichedRunTracks(tracks []enrich.EnrichedTrack) []db.RunTrack {
	out := make([]db.RunTrack, len(tracks))
	for i, t := range tracks {
		out[i] = db.RunTrack{
			TrackName:   t.Name,
			ArtistName:  t.Artist,
			CleanLyrics: t.CleanLyrics,
			Error:       t.Error,
		}
	}
	return out
}

func classifiedRunTracks(tracks []mood.ClassifiedTrack) []db.RunTrack {
	out := make([]db.RunTrack, len(tracks))
	for i, t := range tracks {
		out[i] = db.RunTrack{
			TrackName:   t.Name,
			ArtistName:  t.Artist,
			CleanLyrics: t.CleanLyrics,
			Error:       t.ClassifyError,
			Emotion:     optional(string(t.Emotion)),
		}
	}
	return out
}

func pairRunTracks(pairs []enrich.Track) []db.RunTrack {
	out := make([]db.RunTrack, len(pairs))
	for i, p := range pairs {
		out[i] = db.RunTrack{TrackName: p.Name, ArtistName: p.Artist}
	}
	return out
}
