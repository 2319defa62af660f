package genius

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const lyricsPage = `<html><body>
<div data-lyrics-container="true"><div data-exclude-from-selection="true">12 Contributors</div>[Verse 1]<br/>I walked the line<br/><i>all night</i></div>
<div class="ad">Buy tickets</div>
<div data-lyrics-container="true">[Chorus]<br/>Oh (yeah)</div>
</body></html>`

type hit struct {
	Type   string `json:"type"`
	Result struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		PrimaryArtist struct {
			Name string `json:"name"`
		} `json:"primary_artist"`
	} `json:"result"`
}

func songHit(title, artist, url string) hit {
	var h hit
	h.Type = "song"
	h.Result.Title = title
	h.Result.URL = url
	h.Result.PrimaryArtist.Name = artist
	return h
}

func writeSearch(w http.ResponseWriter, hits ...hit) {
	resp := map[string]any{
		"meta":     map[string]any{"status": 200},
		"response": map[string]any{"hits": hits},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func testClient(server *httptest.Server) *Client {
	return &Client{
		token:       "test-token",
		httpClient:  server.Client(),
		baseURL:     server.URL,
		retryDelays: []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond},
	}
}

func TestFetch(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("Authorization = %q, want bearer token", got)
			}
			writeSearch(w,
				songHit("Walk the Line (Tracklist)", "Johnny Cash", server.URL+"/tracklist"),
				songHit("Walk the Line", "Someone Else", server.URL+"/cover"),
				songHit("I Walk the Line", "Johnny Cash", server.URL+"/song"),
			)
		case "/song":
			fmt.Fprint(w, lyricsPage)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	got, err := testClient(server).Fetch(context.Background(), "I Walk the Line", "Johnny Cash, June Carter")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	want := "[Verse 1]\nI walked the line\nall night\n[Chorus]\nOh (yeah)"
	if got != want {
		t.Errorf("Fetch() = %q, want %q", got, want)
	}
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "no hits",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeSearch(w)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "only non-song hits",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeSearch(w, songHit("Album Credits", "Artist", "http://example.invalid/credits"))
			},
			wantErr: ErrNotFound,
		},
		{
			name: "page without lyrics",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/search" {
					writeSearch(w, songHit("Song", "Artist", "http://"+r.Host+"/song"))
					return
				}
				fmt.Fprint(w, `<html><body><p>instrumental</p></body></html>`)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantErr: ErrUnauthorized,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantErr: ErrRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := testClient(server).Fetch(context.Background(), "Song", "Artist")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Fetch() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetch_NotConfigured(t *testing.T) {
	var nilClient *Client
	if _, err := nilClient.Fetch(context.Background(), "Song", "Artist"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("nil client Fetch() error = %v, want ErrNotConfigured", err)
	}

	c := NewClient(&Config{})
	if _, err := c.Fetch(context.Background(), "Song", "Artist"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("empty token Fetch() error = %v, want ErrNotConfigured", err)
	}
	if ErrNotConfigured.Error() != "genius: lyrics provider not configured" {
		t.Errorf("ErrNotConfigured message = %q", ErrNotConfigured.Error())
	}
}

func TestFetch_EmptyQuery(t *testing.T) {
	var requestCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
	}))
	defer server.Close()

	_, err := testClient(server).Fetch(context.Background(), "  ", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound", err)
	}
	if n := requestCount.Load(); n != 0 {
		t.Errorf("Expected 0 requests, got %d", n)
	}
}

func TestFetch_RateLimitRetry(t *testing.T) {
	var requestCount atomic.Int32

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/song" {
			fmt.Fprint(w, lyricsPage)
			return
		}

		// Fail first 2 searches with rate limit, succeed on 3rd
		if requestCount.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeSearch(w, songHit("Song", "Artist", server.URL+"/song"))
	}))
	defer server.Close()

	_, err := testClient(server).Fetch(context.Background(), "Song", "Artist")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if count := requestCount.Load(); count != 3 {
		t.Errorf("Expected 3 search requests, got %d", count)
	}
}

func TestFetch_RateLimitExhausted(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server).Fetch(context.Background(), "Song", "Artist")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Fetch() error = %v, want ErrRateLimited", err)
	}

	// 1 initial + 3 retries
	if count := requestCount.Load(); count != 4 {
		t.Errorf("Expected 4 requests, got %d", count)
	}
}

func TestFetch_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := testClient(server)
	c.retryDelays = []time.Duration{time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, "Song", "Artist")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Fetch() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestParseLyrics(t *testing.T) {
	got, err := parseLyrics(strings.NewReader(lyricsPage))
	if err != nil {
		t.Fatalf("parseLyrics() error = %v", err)
	}
	if strings.Contains(got, "Contributors") {
		t.Errorf("parseLyrics() kept excluded header: %q", got)
	}
	if strings.Contains(got, "Buy tickets") {
		t.Errorf("parseLyrics() kept text outside containers: %q", got)
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(&Config{AccessToken: "tok"})

	if client.token != "tok" {
		t.Errorf("NewClient() token = %s, want tok", client.token)
	}
	if client.httpClient == nil {
		t.Error("NewClient() httpClient is nil")
	}
	if client.baseURL != baseURL {
		t.Errorf("NewClient() baseURL = %s, want %s", client.baseURL, baseURL)
	}
	if len(client.retryDelays) != 3 {
		t.Errorf("NewClient() retryDelays = %v, want 3 delays", client.retryDelays)
	}
}
