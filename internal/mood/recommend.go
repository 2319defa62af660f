package mood

import (
	"math/rand/v2"
	"slices"
	"strings"
)

// Defaults for Recommend.
const (
	DefaultK    = 10
	DefaultSeed = 42
)

// KeySet holds (track, artist) keys as produced by enrich.Track.Key.
type KeySet map[string]struct{}

// NewKeySet creates a set holding keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether key is in the set. A nil set is empty.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// SeenKeys returns the keys of classified tracks.
func SeenKeys(tracks []ClassifiedTrack) KeySet {
	s := make(KeySet, len(tracks))
	for _, t := range tracks {
		s[t.Key()] = struct{}{}
	}
	return s
}

// Recommend picks up to k library entries labeled target (case-insensitive).
// When no entry has that label the whole library is used instead. Entries
// whose key is in seen are excluded. If more than k candidates remain, a
// uniform sample of exactly k is drawn from a PCG source seeded with seed,
// so equal inputs give equal output. Results keep library order.
func Recommend(target Emotion, seen KeySet, library []LibraryEntry, k int, seed uint64) []LibraryEntry {
	if k <= 0 {
		return []LibraryEntry{}
	}

	want := strings.ToLower(strings.TrimSpace(string(target)))

	var pool []LibraryEntry
	for _, e := range library {
		if strings.ToLower(string(e.Emotion)) == want {
			pool = append(pool, e)
		}
	}
	if len(pool) == 0 {
		pool = library
	}

	candidates := make([]LibraryEntry, 0, len(pool))
	for _, e := range pool {
		if !seen.Has(e.Key()) {
			candidates = append(candidates, e)
		}
	}

	if len(candidates) <= k {
		return candidates
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	picked := rng.Perm(len(candidates))[:k]
	slices.Sort(picked)

	out := make([]LibraryEntry, k)
	for i, idx := range picked {
		out[i] = candidates[idx]
	}
	return out
}
