package mood

import (
	"fmt"
	"slices"
	"testing"

	"github.com/justestif/go-spotify-moodify/internal/enrich"
)

func entry(name, artist string, e Emotion) LibraryEntry {
	return LibraryEntry{Track: enrich.Track{Name: name, Artist: artist}, Emotion: e}
}

func happyLibrary(n int) []LibraryEntry {
	lib := make([]LibraryEntry, n)
	for i := range lib {
		lib[i] = entry(fmt.Sprintf("Song %02d", i), "Artist", Happy)
	}
	return lib
}

func allKeys(lib []LibraryEntry) KeySet {
	s := NewKeySet()
	for _, e := range lib {
		s[e.Key()] = struct{}{}
	}
	return s
}

func TestRecommend_SamplesExactlyK(t *testing.T) {
	lib := happyLibrary(20)

	first := Recommend(Happy, KeySet{}, lib, 10, DefaultSeed)
	if len(first) != 10 {
		t.Fatalf("Recommend() returned %d entries, want 10", len(first))
	}

	distinct := make(map[string]bool)
	for _, e := range first {
		if e.Emotion != Happy {
			t.Errorf("Recommend() returned %q entry %s", e.Emotion, e.Key())
		}
		distinct[e.Key()] = true
	}
	if len(distinct) != 10 {
		t.Errorf("Recommend() returned %d distinct entries, want 10", len(distinct))
	}

	second := Recommend(Happy, KeySet{}, lib, 10, DefaultSeed)
	if !slices.Equal(first, second) {
		t.Errorf("Recommend() not reproducible:\n first  = %v\n second = %v", first, second)
	}
}

func TestRecommend_KeepsLibraryOrder(t *testing.T) {
	lib := happyLibrary(30)
	position := make(map[string]int)
	for i, e := range lib {
		position[e.Key()] = i
	}

	got := Recommend(Happy, nil, lib, 7, DefaultSeed)
	for i := 1; i < len(got); i++ {
		if position[got[i-1].Key()] >= position[got[i].Key()] {
			t.Fatalf("Recommend() out of library order at %d: %v", i, got)
		}
	}
}

func TestRecommend(t *testing.T) {
	mixed := []LibraryEntry{
		entry("A", "X", Happy),
		entry("B", "X", "SAD"),
		entry("C", "Y", Sad),
		entry("D", "Y", Relaxed),
		entry("E", "Z", Happy),
	}

	tests := []struct {
		name    string
		target  Emotion
		seen    KeySet
		library []LibraryEntry
		k       int
		want    []string
	}{
		{
			name:    "same mood only",
			target:  Happy,
			library: mixed,
			k:       10,
			want:    []string{"A::X", "E::Z"},
		},
		{
			name:    "case-insensitive match",
			target:  "Sad",
			library: mixed,
			k:       10,
			want:    []string{"B::X", "C::Y"},
		},
		{
			name:    "seen entries excluded",
			target:  Happy,
			seen:    NewKeySet("A::X"),
			library: mixed,
			k:       10,
			want:    []string{"E::Z"},
		},
		{
			name:    "no same-mood entries falls back to whole library",
			target:  Angry,
			seen:    NewKeySet("C::Y"),
			library: mixed,
			k:       10,
			want:    []string{"A::X", "B::X", "D::Y", "E::Z"},
		},
		{
			name:    "same-mood entries all seen gives nothing",
			target:  Happy,
			seen:    NewKeySet("A::X", "E::Z"),
			library: mixed,
			k:       10,
			want:    []string{},
		},
		{
			name:    "exclude everything",
			target:  Happy,
			seen:    allKeys(mixed),
			library: mixed,
			k:       10,
			want:    []string{},
		},
		{
			name:    "exclude everything with fallback",
			target:  Energetic,
			seen:    allKeys(mixed),
			library: mixed,
			k:       10,
			want:    []string{},
		},
		{
			name:    "empty library",
			target:  Happy,
			library: nil,
			k:       10,
			want:    []string{},
		},
		{
			name:    "zero k",
			target:  Happy,
			library: mixed,
			k:       0,
			want:    []string{},
		},
		{
			name:    "exactly k",
			target:  Happy,
			library: mixed,
			k:       2,
			want:    []string{"A::X", "E::Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommend(tt.target, tt.seen, tt.library, tt.k, DefaultSeed)

			keys := make([]string, len(got))
			for i, e := range got {
				keys[i] = e.Key()
			}
			if !slices.Equal(keys, tt.want) {
				t.Errorf("Recommend() = %v, want %v", keys, tt.want)
			}
			if got == nil {
				t.Error("Recommend() returned nil, want empty slice")
			}
		})
	}
}

func TestRecommend_FallbackSamplesK(t *testing.T) {
	var lib []LibraryEntry
	for i := 0; i < 15; i++ {
		lib = append(lib, entry(fmt.Sprintf("Song %d", i), "Artist", Relaxed))
	}

	got := Recommend(Sad, nil, lib, 5, DefaultSeed)
	if len(got) != 5 {
		t.Errorf("Recommend() returned %d entries, want 5", len(got))
	}
}

func TestSeenKeys(t *testing.T) {
	tracks := []ClassifiedTrack{
		{EnrichedTrack: enrich.EnrichedTrack{Track: enrich.Track{Name: "A", Artist: "X"}}},
		{EnrichedTrack: enrich.EnrichedTrack{Track: enrich.Track{Name: "B", Artist: "Y"}}},
	}
	seen := SeenKeys(tracks)

	if !seen.Has("A::X") || !seen.Has("B::Y") {
		t.Errorf("SeenKeys() = %v, missing track keys", seen)
	}
	if seen.Has("A::Y") {
		t.Error("SeenKeys() has key for a pair that was not played")
	}

	var empty KeySet
	if empty.Has("A::X") {
		t.Error("nil KeySet.Has() = true")
	}
}
