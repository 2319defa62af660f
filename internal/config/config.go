// Package config loads moodify settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/justestif/go-spotify-moodify/internal/genius"
	"github.com/justestif/go-spotify-moodify/internal/huggingface"
	"github.com/justestif/go-spotify-moodify/internal/lyrics"
)

// ErrInvalid is wrapped by every malformed-variable error.
var ErrInvalid = errors.New("invalid configuration")

// Defaults.
const (
	DefaultDataDir         = "realtime_data"
	DefaultLibraryPath     = "data/tracks_with_emotionLabels.csv"
	DefaultAddr            = "127.0.0.1:8000"
	DefaultRecentLimit     = 20
	DefaultRecommendK      = 10
	DefaultSeed            = 42
	DefaultLyricsRPS       = 1.0
	DefaultConcurrency     = 4
	DefaultFetchTimeout    = 15 * time.Second
	DefaultClassifyTimeout = 60 * time.Second
	cacheFileName          = "lyrics_cache.db"
	cacheDisabled          = "off"
)

// Config holds every moodify setting. Empty credentials mean the
// corresponding capability is unavailable.
type Config struct {
	SpotifyID       string
	SpotifySecret   string
	SpotifyRedirect string

	GeniusToken string
	HFToken     string
	HFModel     string

	DataDir     string
	LibraryPath string
	CachePath   string // empty disables the lyrics cache
	DatabaseURL string // empty disables run history
	Addr        string

	RecentLimit     int
	RecommendK      int
	Seed            uint64
	LyricsRPS       float64
	Concurrency     int
	FetchTimeout    time.Duration
	ClassifyTimeout time.Duration

	EnglishOnly      bool
	EnglishThreshold float64
	StagePolicy      lyrics.StagePolicy
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		DataDir:          DefaultDataDir,
		LibraryPath:      DefaultLibraryPath,
		CachePath:        filepath.Join(DefaultDataDir, cacheFileName),
		Addr:             DefaultAddr,
		RecentLimit:      DefaultRecentLimit,
		RecommendK:       DefaultRecommendK,
		Seed:             DefaultSeed,
		LyricsRPS:        DefaultLyricsRPS,
		Concurrency:      DefaultConcurrency,
		FetchTimeout:     DefaultFetchTimeout,
		ClassifyTimeout:  DefaultClassifyTimeout,
		EnglishThreshold: lyrics.DefaultEnglishThreshold,
		StagePolicy:      lyrics.PolicyLongSpan,
	}
}

// Load reads .env from the working directory, if present, and then the
// process environment. Variables already set in the environment win over
// .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup. All malformed variables are
// reported together.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	cfg.SpotifyID = p.str("SPOTIFY_ID", "")
	cfg.SpotifySecret = p.str("SPOTIFY_SECRET", "")
	cfg.SpotifyRedirect = p.str("SPOTIFY_REDIRECT_URI", "")
	cfg.GeniusToken = p.str("GENIUS_ACCESS_TOKEN", "")
	cfg.HFToken = p.str("HF_API_TOKEN", "")
	cfg.HFModel = p.str("HF_MODEL", "")
	cfg.DatabaseURL = p.str("DATABASE_URL", "")

	cfg.DataDir = p.str("MOODIFY_DATA_DIR", cfg.DataDir)
	cfg.LibraryPath = p.str("MOODIFY_LIBRARY", cfg.LibraryPath)
	cfg.Addr = p.str("MOODIFY_ADDR", cfg.Addr)

	cfg.CachePath = filepath.Join(cfg.DataDir, cacheFileName)
	switch cache := p.str("MOODIFY_CACHE", ""); {
	case strings.EqualFold(cache, cacheDisabled):
		cfg.CachePath = ""
	case cache != "":
		cfg.CachePath = cache
	}

	cfg.RecentLimit = p.positiveInt("MOODIFY_RECENT_LIMIT", cfg.RecentLimit)
	cfg.RecommendK = p.positiveInt("MOODIFY_RECOMMEND_K", cfg.RecommendK)
	cfg.Seed = p.unsigned("MOODIFY_SEED", cfg.Seed)
	cfg.LyricsRPS = p.positiveFloat("MOODIFY_LYRICS_RPS", cfg.LyricsRPS)
	cfg.Concurrency = p.positiveInt("MOODIFY_CONCURRENCY", cfg.Concurrency)
	cfg.FetchTimeout = p.duration("MOODIFY_FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.ClassifyTimeout = p.duration("MOODIFY_CLASSIFY_TIMEOUT", cfg.ClassifyTimeout)
	cfg.EnglishOnly = p.boolean("MOODIFY_ENGLISH_ONLY", cfg.EnglishOnly)

	cfg.EnglishThreshold = p.positiveFloat("MOODIFY_ENGLISH_THRESHOLD", cfg.EnglishThreshold)
	if cfg.EnglishThreshold > 1 {
		p.fail("MOODIFY_ENGLISH_THRESHOLD", strconv.FormatFloat(cfg.EnglishThreshold, 'g', -1, 64), "must be at most 1")
		cfg.EnglishThreshold = lyrics.DefaultEnglishThreshold
	}

	if v := p.str("MOODIFY_STAGE_POLICY", ""); v != "" {
		switch policy := lyrics.StagePolicy(strings.ToLower(v)); policy {
		case lyrics.PolicyLongSpan, lyrics.PolicyShortToken:
			cfg.StagePolicy = policy
		default:
			p.fail("MOODIFY_STAGE_POLICY", v, fmt.Sprintf("want %q or %q", lyrics.PolicyLongSpan, lyrics.PolicyShortToken))
		}
	}

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SpotifyConfigured reports whether Spotify credentials are present.
func (c Config) SpotifyConfigured() bool {
	return c.SpotifyID != "" && c.SpotifySecret != ""
}

// Genius returns the lyrics provider configuration, or
// genius.ErrMissingToken when no access token is set.
func (c Config) Genius() (*genius.Config, error) {
	if c.GeniusToken == "" {
		return nil, genius.ErrMissingToken
	}
	return &genius.Config{AccessToken: c.GeniusToken}, nil
}

// HuggingFace returns the inference API configuration, or
// huggingface.ErrMissingToken when no token is set. The model defaults to
// huggingface.DefaultModel.
func (c Config) HuggingFace() (*huggingface.Config, error) {
	if c.HFToken == "" {
		return nil, huggingface.ErrMissingToken
	}
	model := c.HFModel
	if model == "" {
		model = huggingface.DefaultModel
	}
	return &huggingface.Config{Token: c.HFToken, Model: model}, nil
}

// LyricsConfig returns the normalizer configuration for the chosen stage policy.
func (c Config) LyricsConfig() lyrics.Config {
	cfg := lyrics.DefaultConfig()
	cfg.Stage.Policy = c.StagePolicy
	return cfg
}

// parser accumulates errors while reading variables.
type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) str(name, def string) string {
	if v, ok := p.lookup(name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) fail(name, value, reason string) {
	p.errs = append(p.errs, fmt.Errorf("%w: %s=%q: %s", ErrInvalid, name, value, reason))
}

func (p *parser) positiveInt(name string, def int) int {
	v := p.str(name, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		p.fail(name, v, "want a positive integer")
		return def
	}
	return n
}

func (p *parser) unsigned(name string, def uint64) uint64 {
	v := p.str(name, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		p.fail(name, v, "want a non-negative integer")
		return def
	}
	return n
}

func (p *parser) positiveFloat(name string, def float64) float64 {
	v := p.str(name, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		p.fail(name, v, "want a positive number")
		return def
	}
	return f
}

// duration accepts Go durations ("15s") or bare seconds ("15").
func (p *parser) duration(name string, def time.Duration) time.Duration {
	v := p.str(name, "")
	if v == "" {
		return def
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			p.fail(name, v, "want a positive duration")
			return def
		}
		return time.Duration(secs * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.fail(name, v, "want a positive duration")
		return def
	}
	return d
}

func (p *parser) boolean(name string, def bool) bool {
	v := p.str(name, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(name, v, "want true or false")
		return def
	}
	return b
}
