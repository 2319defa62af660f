package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/justestif/go-spotify-moodify/internal/auth"
	"github.com/justestif/go-spotify-moodify/internal/cache"
	"github.com/justestif/go-spotify-moodify/internal/config"
	"github.com/justestif/go-spotify-moodify/internal/db"
	"github.com/justestif/go-spotify-moodify/internal/enrich"
	"github.com/justestif/go-spotify-moodify/internal/genius"
	"github.com/justestif/go-spotify-moodify/internal/huggingface"
	"github.com/justestif/go-spotify-moodify/internal/lyrics"
	"github.com/justestif/go-spotify-moodify/internal/mood"
	"github.com/justestif/go-spotify-moodify/internal/pipeline"
	"github.com/justestif/go-spotify-moodify/internal/spotify"
	"github.com/justestif/go-spotify-moodify/internal/storage"
)

var errNoDatabase = errors.New("run history requires DATABASE_URL")

// app holds the configuration and the resources opened for one command.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	closers []func()
}

func newApp(cfg config.Config, debug bool) (*app, error) {
	logger, err := newLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return &app{cfg: cfg, logger: logger}, nil
}

// newLogger returns a production logger, or a development one with debug.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	return zcfg.Build()
}

// Close releases resources in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	_ = a.logger.Sync()
}

// fetcher returns the lyrics fetcher: Genius behind the SQLite cache, or a
// disabled fetcher when no Genius token is set.
func (a *app) fetcher() (enrich.Fetcher, error) {
	gc, err := a.cfg.Genius()
	if err != nil {
		a.logger.Debug("lyrics fetching disabled", zap.Error(err))
		return enrich.DisabledFetcher{}, nil
	}

	var f enrich.Fetcher = genius.NewClient(gc)
	if a.cfg.CachePath == "" {
		return f, nil
	}

	lc, err := cache.Open(a.cfg.CachePath, 0)
	if err != nil {
		return nil, fmt.Errorf("opening lyrics cache: %w", err)
	}
	a.closers = append(a.closers, func() {
		if total, found, err := lc.Stats(context.Background()); err == nil {
			a.logger.Debug("lyrics cache", zap.Int("entries", total), zap.Int("found", found))
		}
		lc.Close()
	})
	return enrich.NewCachedFetcher(lc, f, a.logger), nil
}

// enricher builds the lyrics enrichment service.
func (a *app) enricher() (*enrich.Service, error) {
	f, err := a.fetcher()
	if err != nil {
		return nil, err
	}

	language := lyrics.DisabledLanguageFilter()
	if a.cfg.EnglishOnly {
		language = lyrics.NewLanguageFilter(a.cfg.EnglishThreshold)
	}

	return enrich.NewService(f,
		enrich.WithConcurrency(a.cfg.Concurrency),
		enrich.WithLimiter(rate.NewLimiter(rate.Limit(a.cfg.LyricsRPS), 1)),
		enrich.WithFetchTimeout(a.cfg.FetchTimeout),
		enrich.WithLanguageFilter(language),
		enrich.WithNormalizer(lyrics.NewNormalizer(a.cfg.LyricsConfig())),
		enrich.WithLogger(a.logger),
	), nil
}

// classifierFactory builds the Hugging Face backed classifier on first use.
func (a *app) classifierFactory() pipeline.ClassifierFactory {
	return func() (*mood.Classifier, error) {
		hc, err := a.cfg.HuggingFace()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", pipeline.ErrClassifierUnavailable, err)
		}
		return mood.NewClassifier(huggingface.NewClient(hc),
			mood.WithTimeout(a.cfg.ClassifyTimeout),
			mood.WithClassifierLogger(a.logger),
		), nil
	}
}

// spotifyClient authenticates with Spotify, running the browser flow when
// no cached token is usable.
func (a *app) spotifyClient(ctx context.Context) (*spotify.Client, error) {
	authenticator, err := a.authenticator()
	if err != nil {
		return nil, err
	}
	client, err := authenticator.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticating with Spotify: %w", err)
	}
	return spotify.New(client, spotify.WithLogger(a.logger)), nil
}

func (a *app) authenticator() (*auth.Authenticator, error) {
	return auth.New(auth.Config{
		ClientID:     a.cfg.SpotifyID,
		ClientSecret: a.cfg.SpotifySecret,
		RedirectURI:  a.cfg.SpotifyRedirect,
	}, auth.WithLogger(a.logger), auth.WithPrompt(os.Stderr))
}

// runRecorder connects to Postgres when DATABASE_URL is set. Connection
// failures are logged and run history is skipped.
func (a *app) runRecorder(ctx context.Context) *db.RunRepository {
	if a.cfg.DatabaseURL == "" {
		return nil
	}

	database, err := db.New(ctx, a.cfg.DatabaseURL)
	if err != nil {
		a.logger.Warn("run history disabled", zap.Error(err))
		return nil
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		a.logger.Warn("run history disabled", zap.Error(err))
		return nil
	}
	a.closers = append(a.closers, database.Close)
	return database.Runs()
}

// runHistory connects to Postgres for reading run history.
func (a *app) runHistory(ctx context.Context) (*db.RunRepository, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, errNoDatabase
	}
	database, err := db.New(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, database.Close)
	return database.Runs(), nil
}

// newPipeline wires a pipeline service. With withSpotify the user is
// authenticated first; otherwise Spotify operations report
// pipeline.ErrSpotifyUnavailable.
func (a *app) newPipeline(ctx context.Context, withSpotify bool) (*pipeline.Service, error) {
	if withSpotify && !a.cfg.SpotifyConfigured() {
		return nil, auth.ErrMissingCredentials
	}

	enricher, err := a.enricher()
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithClassifier(a.classifierFactory()),
		pipeline.WithLibrary(a.cfg.LibraryPath),
		pipeline.WithSeed(a.cfg.Seed),
		pipeline.WithLogger(a.logger),
	}
	if runs := a.runRecorder(ctx); runs != nil {
		opts = append(opts, pipeline.WithRunRecorder(runs))
	}

	if withSpotify {
		sp, err := a.spotifyClient(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithSpotify(sp))
	}

	return pipeline.New(storage.New(a.cfg.DataDir), enricher, opts...), nil
}

// scrapeOutput returns the default scraper output path for input.
func scrapeOutput(input string) string {
	dir := filepath.Dir(input)
	return filepath.Join(dir, "tracks_with_lyrics.csv")
}

// isUnavailable reports whether err means an optional capability is not configured.
func isUnavailable(err error) bool {
	return errors.Is(err, pipeline.ErrSpotifyUnavailable) ||
		errors.Is(err, pipeline.ErrClassifierUnavailable) ||
		errors.Is(err, auth.ErrMissingCredentials)
}
