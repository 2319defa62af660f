// Package enrich attaches cleaned lyrics to listening-history tracks.
//
// Every input track produces exactly one EnrichedTrack, in input order.
// Fetch, language and cleaning failures are recorded on the track's Error
// field; they never fail the batch.
package enrich

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/justestif/go-spotify-moodify/internal/genius"
	"github.com/justestif/go-spotify-moodify/internal/lyrics"
)

// MinCleanLength is the shortest cleaned text considered usable.
const MinCleanLength = 20

// Defaults for NewService.
const (
	DefaultConcurrency  = 4
	DefaultFetchTimeout = 15 * time.Second
	DefaultRate         = 1.0 // lyrics fetches per second
)

// Error messages recorded on tracks.
const (
	msgNotEnglish   = "lyrics not in English"
	msgCleanedEmpty = "cleaned lyrics empty"
	msgTooShort     = "cleaned lyrics too short"
)

// Track is one listening-history entry. Name and Artist together identify
// it; they are not globally unique.
type Track struct {
	Name   string `json:"track_name"`
	Artist string `json:"artist_name"`
}

// Key returns the (track, artist) identity used for de-duplication.
func (t Track) Key() string {
	return t.Name + "::" + t.Artist
}

// EnrichedTrack is a Track with its lyrics. CleanLyrics is empty when the
// fetch failed or cleaning left nothing; Error then says why.
type EnrichedTrack struct {
	Track
	RawLyrics   string `json:"raw_lyrics,omitempty"`
	CleanLyrics string `json:"clean_lyrics"`
	Error       string `json:"error,omitempty"`
}

// Fetcher returns raw lyrics for a track.
type Fetcher interface {
	Fetch(ctx context.Context, track, artist string) (string, error)
}

// DisabledFetcher stands in when no lyrics provider is configured.
type DisabledFetcher struct{}

// Fetch always returns genius.ErrNotConfigured.
func (DisabledFetcher) Fetch(context.Context, string, string) (string, error) {
	return "", genius.ErrNotConfigured
}

// LanguageFilter decides whether lyrics are English. *lyrics.LanguageFilter
// implements it.
type LanguageFilter interface {
	Available() bool
	IsEnglish(text string) bool
}

// Service runs the fetch, filter, normalize and validate steps over a batch.
type Service struct {
	fetcher      Fetcher
	normalizer   *lyrics.Normalizer
	language     LanguageFilter
	limiter      *rate.Limiter
	concurrency  int
	fetchTimeout time.Duration
	logger       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency sets the number of concurrent lyrics fetches.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLimiter sets the limiter every fetch waits on. Pass
// rate.NewLimiter(rate.Inf, 0) to disable pacing.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Service) {
		if l != nil {
			s.limiter = l
		}
	}
}

// WithFetchTimeout bounds each individual fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithLanguageFilter drops lyrics the filter does not consider English.
// A nil or unavailable filter disables the check.
func WithLanguageFilter(f LanguageFilter) Option {
	return func(s *Service) {
		s.language = f
	}
}

// WithNormalizer replaces the default lyrics normalizer.
func WithNormalizer(n *lyrics.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
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

// NewService creates an enrichment service. A nil fetcher behaves like DisabledFetcher.
func NewService(fetcher Fetcher, opts ...Option) *Service {
	if fetcher == nil {
		fetcher = DisabledFetcher{}
	}
	s := &Service{
		fetcher:      fetcher,
		normalizer:   lyrics.NewNormalizer(lyrics.DefaultConfig()),
		limiter:      rate.NewLimiter(rate.Limit(DefaultRate), 1),
		concurrency:  DefaultConcurrency,
		fetchTimeout: DefaultFetchTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LyricsEnabled reports whether a lyrics provider is configured.
func (s *Service) LyricsEnabled() bool {
	_, disabled := s.fetcher.(DisabledFetcher)
	return !disabled
}

// Enrich fetches and cleans lyrics for tracks concurrently.
// Results are returned in the same order as input tracks.
// The only error returned is the context's; the result slice is still full
// length, with cancelled tracks carrying the cancellation as their Error.
func (s *Service) Enrich(ctx context.Context, tracks []Track) ([]EnrichedTrack, error) {
	if len(tracks) == 0 {
		return []EnrichedTrack{}, nil
	}

	results := make([]EnrichedTrack, len(tracks))

	type workItem struct {
		index int
		track Track
	}
	workCh := make(chan workItem, len(tracks))
	for i, t := range tracks {
		workCh <- workItem{index: i, track: t}
	}
	close(workCh)

	var wg sync.WaitGroup
	for i := 0; i < min(s.concurrency, len(tracks)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				select {
				case <-ctx.Done():
					results[work.index] = EnrichedTrack{Track: work.track, Error: ctx.Err().Error()}
					continue
				default:
				}
				results[work.index] = s.enrichOne(ctx, work.track)
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	s.logger.Info("enriched tracks",
		zap.Int("tracks", len(tracks)),
		zap.Int("with_lyrics", countClean(results)),
	)
	return results, nil
}

func (s *Service) enrichOne(ctx context.Context, t Track) EnrichedTrack {
	out := EnrichedTrack{Track: t}
	log := s.logger.With(zap.String("track", t.Name), zap.String("artist", t.Artist))

	if err := s.limiter.Wait(ctx); err != nil {
		out.Error = err.Error()
		return out
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	raw, err := s.fetcher.Fetch(fetchCtx, t.Name, t.Artist)
	cancel()
	if err != nil {
		log.Debug("lyrics fetch failed", zap.Error(err))
		out.Error = err.Error()
		return out
	}
	if strings.TrimSpace(raw) == "" {
		out.Error = genius.ErrNotFound.Error()
		return out
	}
	out.RawLyrics = raw

	if s.language != nil && s.language.Available() && !s.language.IsEnglish(raw) {
		log.Debug("lyrics rejected by language filter")
		out.Error = msgNotEnglish
		return out
	}

	out.CleanLyrics = s.normalizer.Normalize(raw)

	switch {
	case out.CleanLyrics == "":
		out.Error = msgCleanedEmpty
	case len(out.CleanLyrics) < MinCleanLength:
		out.Error = appendError(out.Error, msgTooShort)
	}
	return out
}

// appendError joins a note onto an existing error message with " | ".
func appendError(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + " | " + note
}

func countClean(tracks []EnrichedTrack) int {
	n := 0
	for _, t := range tracks {
		if t.CleanLyrics != "" {
			n++
		}
	}
	return n
}
