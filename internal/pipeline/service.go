// Package pipeline wires listening history, lyrics enrichment, mood
// classification, recommendation and playlist creation into the operations
// the CLI and HTTP API expose.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justestif/go-spotify-moodify/internal/db"
	"github.com/justestif/go-spotify-moodify/internal/enrich"
	"github.com/justestif/go-spotify-moodify/internal/mood"
	"github.com/justestif/go-spotify-moodify/internal/spotify"
	"github.com/justestif/go-spotify-moodify/internal/storage"
)

// Stage names used in StageError.
const (
	StageHistory  = "history"
	StageEnrich   = "enrich"
	StagePersist  = "persist"
	StageLoad     = "load"
	StageClassify = "classify"
	StageLibrary  = "library"
	StagePlaylist = "playlist"
)

// Common errors.
var (
	// ErrSpotifyUnavailable is returned when an operation needs Spotify and no client is set.
	ErrSpotifyUnavailable = errors.New("spotify client not configured")

	// ErrClassifierUnavailable is returned when no mood inference backend is configured.
	ErrClassifierUnavailable = errors.New("mood classifier not configured")

	// ErrNoLyrics is returned when no track has clean lyrics to classify.
	ErrNoLyrics = errors.New("no tracks with usable lyrics")
)

// StageError names the pipeline stage that failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// Spotify is the Spotify surface the pipeline uses. *spotify.Client implements it.
type Spotify interface {
	RecentlyPlayed(ctx context.Context, limit int) ([]enrich.Track, error)
	Materialize(ctx context.Context, name, description string, pairs []enrich.Track) spotify.MaterializeResult
}

// Enricher attaches lyrics to tracks. *enrich.Service implements it.
type Enricher interface {
	Enrich(ctx context.Context, tracks []enrich.Track) ([]enrich.EnrichedTrack, error)
	LyricsEnabled() bool
}

// RunRecorder stores run history. *db.RunRepository implements it.
type RunRecorder interface {
	Create(ctx context.Context, run *db.Run, tracks []db.RunTrack) error
}

// ClassifierFactory builds the mood classifier. It is called at most once.
type ClassifierFactory func() (*mood.Classifier, error)

// Service runs pipeline operations against one data directory.
type Service struct {
	store    *storage.Store
	enricher Enricher
	spotify  Spotify
	runs     RunRecorder

	libraryPath string
	groupConfig mood.GroupConfig
	seed        uint64
	logger      *zap.Logger

	classifierOnce    sync.Once
	newClassifier     ClassifierFactory
	classifier        *mood.Classifier
	classifierInitErr error
}

// Option configures a Service.
type Option func(*Service)

// WithSpotify sets the Spotify client.
func WithSpotify(sp Spotify) Option {
	return func(s *Service) {
		s.spotify = sp
	}
}

// WithClassifier sets the factory for the lazily built mood classifier.
func WithClassifier(f ClassifierFactory) Option {
	return func(s *Service) {
		s.newClassifier = f
	}
}

// WithRunRecorder records each run. Recording failures are logged, not returned.
func WithRunRecorder(r RunRecorder) Option {
	return func(s *Service) {
		s.runs = r
	}
}

// WithLibrary sets the labeled library CSV used for recommendations.
func WithLibrary(path string) Option {
	return func(s *Service) {
		s.libraryPath = path
	}
}

// WithGroupConfig sets the sub-mood grouping parameters.
func WithGroupConfig(cfg mood.GroupConfig) Option {
	return func(s *Service) {
		s.groupConfig = cfg
	}
}

// WithSeed sets the recommendation sampling seed.
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a pipeline service.
func New(store *storage.Store, enricher Enricher, opts ...Option) *Service {
	s := &Service{
		store:       store,
		enricher:    enricher,
		groupConfig: mood.DefaultGroupConfig(),
		seed:        mood.DefaultSeed,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LyricsEnabled reports whether a lyrics provider is configured.
func (s *Service) LyricsEnabled() bool {
	return s.enricher != nil && s.enricher.LyricsEnabled()
}

// ClassifierAvailable reports whether mood classification can run. It
// builds the classifier on first call.
func (s *Service) ClassifierAvailable() bool {
	c, err := s.moodClassifier()
	return err == nil && c.Available()
}

// moodClassifier builds the classifier once per Service.
func (s *Service) moodClassifier() (*mood.Classifier, error) {
	s.classifierOnce.Do(func() {
		if s.newClassifier == nil {
			s.classifierInitErr = ErrClassifierUnavailable
			return
		}
		s.classifier, s.classifierInitErr = s.newClassifier()
		if s.classifierInitErr == nil && !s.classifier.Available() {
			s.classifierInitErr = ErrClassifierUnavailable
		}
	})
	return s.classifier, s.classifierInitErr
}

// record stores a run if a recorder is configured and returns its ID.
func (s *Service) record(ctx context.Context, run *db.Run, tracks []db.RunTrack) string {
	if s.runs == nil {
		return ""
	}
	if err := s.runs.Create(ctx, run, tracks); err != nil {
		s.logger.Warn("recording run failed", zap.String("kind", run.Kind), zap.Error(err))
		return ""
	}
	return run.ID.String()
}

func newRun(kind string) *db.Run {
	return &db.Run{ID: uuid.New(), Kind: kind}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
