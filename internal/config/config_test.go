package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/justestif/go-spotify-moodify/internal/genius"
	"github.com/justestif/go-spotify-moodify/internal/huggingface"
	"github.com/justestif/go-spotify-moodify/internal/lyrics"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	want := Default()
	if cfg != want {
		t.Errorf("FromEnv() = %+v, want %+v", cfg, want)
	}
	if cfg.SpotifyConfigured() {
		t.Error("SpotifyConfigured() = true without credentials")
	}
	if cfg.CachePath != filepath.Join(DefaultDataDir, "lyrics_cache.db") {
		t.Errorf("CachePath = %q", cfg.CachePath)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"SPOTIFY_ID":                "id",
		"SPOTIFY_SECRET":            "secret",
		"GENIUS_ACCESS_TOKEN":       " token ",
		"HF_API_TOKEN":              "hf",
		"HF_MODEL":                  "some/model",
		"DATABASE_URL":              "postgres://localhost/moodify",
		"MOODIFY_DATA_DIR":          "/tmp/moodify",
		"MOODIFY_LIBRARY":           "lib.csv",
		"MOODIFY_ADDR":              ":9000",
		"MOODIFY_RECENT_LIMIT":      "50",
		"MOODIFY_RECOMMEND_K":       "5",
		"MOODIFY_SEED":              "7",
		"MOODIFY_LYRICS_RPS":        "2.5",
		"MOODIFY_CONCURRENCY":       "8",
		"MOODIFY_FETCH_TIMEOUT":     "30s",
		"MOODIFY_CLASSIFY_TIMEOUT":  "90",
		"MOODIFY_ENGLISH_ONLY":      "true",
		"MOODIFY_ENGLISH_THRESHOLD": "0.75",
		"MOODIFY_STAGE_POLICY":      "Short-Token",
	}))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if !cfg.SpotifyConfigured() {
		t.Error("SpotifyConfigured() = false")
	}
	if cfg.GeniusToken != "token" {
		t.Errorf("GeniusToken = %q, want trimmed token", cfg.GeniusToken)
	}
	if cfg.CachePath != filepath.Join("/tmp/moodify", "lyrics_cache.db") {
		t.Errorf("CachePath = %q, want it under the data dir", cfg.CachePath)
	}
	if cfg.RecentLimit != 50 || cfg.RecommendK != 5 || cfg.Seed != 7 || cfg.Concurrency != 8 {
		t.Errorf("numbers = %d %d %d %d", cfg.RecentLimit, cfg.RecommendK, cfg.Seed, cfg.Concurrency)
	}
	if cfg.LyricsRPS != 2.5 {
		t.Errorf("LyricsRPS = %v", cfg.LyricsRPS)
	}
	if cfg.FetchTimeout != 30*time.Second || cfg.ClassifyTimeout != 90*time.Second {
		t.Errorf("timeouts = %v %v", cfg.FetchTimeout, cfg.ClassifyTimeout)
	}
	if !cfg.EnglishOnly || cfg.EnglishThreshold != 0.75 {
		t.Errorf("english = %v %v", cfg.EnglishOnly, cfg.EnglishThreshold)
	}
	if cfg.StagePolicy != lyrics.PolicyShortToken {
		t.Errorf("StagePolicy = %q", cfg.StagePolicy)
	}
	if cfg.LyricsConfig().Stage.Policy != lyrics.PolicyShortToken {
		t.Error("LyricsConfig() ignores the stage policy")
	}
}

func TestFromEnv_Cache(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"off", ""},
		{"OFF", ""},
		{"/var/cache/lyrics.db", "/var/cache/lyrics.db"},
	}

	for _, tt := range tests {
		cfg, err := FromEnv(envMap(map[string]string{"MOODIFY_CACHE": tt.value}))
		if err != nil {
			t.Fatalf("FromEnv() error = %v", err)
		}
		if cfg.CachePath != tt.want {
			t.Errorf("MOODIFY_CACHE=%q: CachePath = %q, want %q", tt.value, cfg.CachePath, tt.want)
		}
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric limit", "MOODIFY_RECENT_LIMIT", "twenty"},
		{"zero k", "MOODIFY_RECOMMEND_K", "0"},
		{"negative seed", "MOODIFY_SEED", "-1"},
		{"negative rps", "MOODIFY_LYRICS_RPS", "-2"},
		{"bad timeout", "MOODIFY_FETCH_TIMEOUT", "soon"},
		{"zero timeout", "MOODIFY_CLASSIFY_TIMEOUT", "0"},
		{"bad bool", "MOODIFY_ENGLISH_ONLY", "maybe"},
		{"threshold above one", "MOODIFY_ENGLISH_THRESHOLD", "1.5"},
		{"unknown policy", "MOODIFY_STAGE_POLICY", "whatever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(map[string]string{tt.key: tt.value}))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("error = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}

func TestFromEnv_ReportsAllErrors(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{
		"MOODIFY_RECENT_LIMIT": "x",
		"MOODIFY_CONCURRENCY":  "y",
	}))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"MOODIFY_RECENT_LIMIT", "MOODIFY_CONCURRENCY"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MOODIFY_RECOMMEND_K=3\nMOODIFY_SEED=9\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("MOODIFY_SEED", "11")
	// godotenv sets variables for the process; clear the one this test adds.
	t.Setenv("MOODIFY_RECOMMEND_K", "")
	os.Unsetenv("MOODIFY_RECOMMEND_K")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RecommendK != 3 {
		t.Errorf("RecommendK = %d, want 3 from .env", cfg.RecommendK)
	}
	if cfg.Seed != 11 {
		t.Errorf("Seed = %d, want 11 from the environment", cfg.Seed)
	}
}

func TestLoad_NoDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestConfig_Genius(t *testing.T) {
	cfg := Default()
	if _, err := cfg.Genius(); !errors.Is(err, genius.ErrMissingToken) {
		t.Errorf("Genius() error = %v, want ErrMissingToken", err)
	}

	cfg.GeniusToken = "abc123"
	gc, err := cfg.Genius()
	if err != nil {
		t.Fatalf("Genius() error = %v", err)
	}
	if gc.AccessToken != "abc123" {
		t.Errorf("AccessToken = %q, want abc123", gc.AccessToken)
	}
}

func TestConfig_HuggingFace(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		model     string
		wantModel string
		wantErr   error
	}{
		{"missing token", "", "", "", huggingface.ErrMissingToken},
		{"default model", "hf_x", "", huggingface.DefaultModel, nil},
		{"custom model", "hf_x", "org/other", "org/other", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.HFToken = tt.token
			cfg.HFModel = tt.model

			hc, err := cfg.HuggingFace()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("HuggingFace() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if hc.Token != tt.token || hc.Model != tt.wantModel {
				t.Errorf("HuggingFace() = %+v", hc)
			}
		})
	}
}
