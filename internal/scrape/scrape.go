// Package scrape fetches raw lyrics for a large track list offline, saving
// progress to a CSV so an interrupted run can resume where it stopped.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/justestif/go-spotify-moodify/internal/db"
	"github.com/justestif/go-spotify-moodify/internal/enrich"
	"github.com/justestif/go-spotify-moodify/internal/genius"
)

// Defaults for New.
const (
	DefaultCheckpointEvery = 100
	DefaultInterval        = 3 * time.Second
)

// MsgNotFound is recorded when the provider has no lyrics for a track.
const MsgNotFound = "Song not found or empty lyrics"

// ErrNoInput is returned when the input file holds no tracks.
var ErrNoInput = errors.New("no tracks in input")

// RunRecorder stores run history. *db.RunRepository implements it.
type RunRecorder interface {
	Create(ctx context.Context, run *db.Run, tracks []db.RunTrack) error
}

// Service runs batch scrapes against one lyrics fetcher.
type Service struct {
	fetcher         enrich.Fetcher
	limiter         *rate.Limiter
	checkpointEvery int
	maxTracks       int
	runs            RunRecorder
	logger          *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLimiter sets the rate limiter applied before each fetch.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Service) {
		if l != nil {
			s.limiter = l
		}
	}
}

// WithCheckpointEvery saves the output after every n stored rows.
func WithCheckpointEvery(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.checkpointEvery = n
		}
	}
}

// WithMaxTracks caps the number of stored rows, counting rows from earlier
// runs. Zero means no cap.
func WithMaxTracks(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTracks = n
		}
	}
}

// WithRunRecorder records a summary of each scrape.
func WithRunRecorder(r RunRecorder) Option {
	return func(s *Service) {
		s.runs = r
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

// New creates a scrape service.
func New(fetcher enrich.Fetcher, opts ...Option) *Service {
	s := &Service{
		fetcher:         fetcher,
		limiter:         rate.NewLimiter(rate.Every(DefaultInterval), 1),
		checkpointEvery: DefaultCheckpointEvery,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result summarizes a scrape.
type Result struct {
	Input     int `json:"input"`     // tracks read from the input file
	Resumed   int `json:"resumed"`   // rows already present in the output
	Skipped   int `json:"skipped"`   // input tracks already present in the output
	Fetched   int `json:"fetched"`   // tracks fetched this run
	Succeeded int `json:"succeeded"` // fetched tracks with lyrics
	Failed    int `json:"failed"`    // fetched tracks without lyrics
	Total     int `json:"total"`     // rows in the output
}

// Run reads JSON-lines tracks from inPath and writes a CSV of rows to
// outPath. Tracks whose (track, artist) key is already in outPath are
// skipped, whether they succeeded or failed before. The output is saved
// every checkpoint interval and at the end, including when ctx is
// cancelled; the partial result is then returned with ctx's error.
func (s *Service) Run(ctx context.Context, inPath, outPath string) (*Result, error) {
	items, err := ReadInputFile(inPath)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", inPath, ErrNoInput)
	}

	rows, err := ReadRowsFile(outPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	processed := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		processed[r.Key()] = struct{}{}
	}

	result := &Result{Input: len(items), Resumed: len(rows)}
	s.logger.Info("scrape starting",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("tracks", len(items)),
		zap.Int("resumed", len(rows)),
	)

	var runErr error
	for _, item := range items {
		if s.maxTracks > 0 && len(rows) >= s.maxTracks {
			break
		}
		if _, ok := processed[item.Key()]; ok {
			result.Skipped++
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			runErr = err
			break
		}

		row, err := s.fetch(ctx, item)
		if err != nil {
			runErr = err
			break
		}

		rows = append(rows, row)
		processed[item.Key()] = struct{}{}
		result.Fetched++
		if row.Lyrics != "" {
			result.Succeeded++
		} else {
			result.Failed++
		}

		if len(rows)%s.checkpointEvery == 0 {
			if err := WriteRowsFile(outPath, rows); err != nil {
				return result, fmt.Errorf("saving checkpoint: %w", err)
			}
			s.logger.Info("checkpoint saved", zap.Int("rows", len(rows)))
		}
	}

	if err := WriteRowsFile(outPath, rows); err != nil {
		return result, fmt.Errorf("saving output: %w", err)
	}
	result.Total = len(rows)
	s.record(ctx, result, rows[result.Resumed:])

	s.logger.Info("scrape finished",
		zap.Int("fetched", result.Fetched),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("total", result.Total),
	)
	return result, runErr
}

// fetch gets lyrics for one track. Provider failures become the row's
// error; only context cancellation is returned.
func (s *Service) fetch(ctx context.Context, item Item) (Row, error) {
	row := Row{Track: item.Track, PlayCount: item.PlayCount}

	raw, err := s.fetcher.Fetch(ctx, item.Name, item.Artist)
	switch {
	case err != nil && ctx.Err() != nil:
		return Row{}, ctx.Err()
	case errors.Is(err, genius.ErrNotFound):
		row.Error = MsgNotFound
	case err != nil:
		row.Error = err.Error()
	case strings.TrimSpace(raw) == "":
		row.Error = MsgNotFound
	default:
		row.Lyrics = raw
	}

	if row.Error != "" {
		s.logger.Debug("no lyrics",
			zap.String("track", item.Name),
			zap.String("artist", item.Artist),
			zap.String("reason", row.Error),
		)
	}
	return row, nil
}

func (s *Service) record(ctx context.Context, result *Result, rows []Row) {
	if s.runs == nil || result.Fetched == 0 {
		return
	}

	tracks := make([]db.RunTrack, len(rows))
	for i, r := range rows {
		tracks[i] = db.RunTrack{TrackName: r.Name, ArtistName: r.Artist, Error: r.Error}
	}
	run := &db.Run{
		ID:          uuid.New(),
		Kind:        db.KindScrape,
		TrackCount:  result.Fetched,
		LyricsCount: result.Succeeded,
	}
	// Recording uses a fresh context so a cancelled scrape still leaves a record.
	if err := s.runs.Create(context.WithoutCancel(ctx), run, tracks); err != nil {
		s.logger.Warn("recording scrape failed", zap.Error(err))
	}
}
