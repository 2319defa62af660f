package spotify

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Match thresholds on normalized Levenshtein similarity.
const (
	minTitleSimilarity   = 0.65
	minArtistSimilarity  = 0.55
	minOverallSimilarity = 0.70
	titleWeight          = 0.7
)

// ErrNoMatch indicates a search returned no usable track.
var ErrNoMatch = errors.New("no matching track")

// NoMatchError names the track a search failed to find.
type NoMatchError struct {
	Title  string
	Artist string
}

func (e NoMatchError) Error() string {
	if e.Title == "" && e.Artist == "" {
		return ErrNoMatch.Error()
	}
	return fmt.Sprintf("no matching track for %q by %q", e.Title, e.Artist)
}

func (e NoMatchError) Is(target error) bool {
	return target == ErrNoMatch
}

// versionTokens are dropped before comparing titles and artists.
var versionTokens = map[string]bool{
	"clean":      true,
	"deluxe":     true,
	"edit":       true,
	"edition":    true,
	"explicit":   true,
	"feat":       true,
	"featuring":  true,
	"ft":         true,
	"live":       true,
	"mono":       true,
	"radio":      true,
	"remaster":   true,
	"remastered": true,
	"stereo":     true,
	"version":    true,
}

// bestCandidate picks the closest candidate to (title, artist). When no
// candidate clears the thresholds the top search hit is returned with
// confident=false. ok is false only when there are no candidates with an ID.
func bestCandidate(title, artist string, candidates []spotify.FullTrack) (best spotify.FullTrack, confident, ok bool) {
	bestScore := -1.0
	for _, cand := range candidates {
		if cand.ID == "" {
			continue
		}
		if !ok {
			best, ok = cand, true
		}
		score, pass := matchScore(title, artist, cand.Name, joinArtists(cand.Artists))
		if pass && score > bestScore {
			best, bestScore, confident = cand, score, true
		}
	}
	return best, confident, ok
}

// matchScore weighs title similarity over artist similarity and reports
// whether every threshold is met.
func matchScore(title, artist, candTitle, candArtist string) (float64, bool) {
	t, a := normalizeName(title), normalizeName(artist)
	ct, ca := normalizeName(candTitle), normalizeName(candArtist)
	if t == "" || ct == "" {
		return 0, false
	}

	titleSim := similarity(t, ct)
	artistSim := 1.0
	if a != "" {
		artistSim = similarity(a, ca)
	}
	score := titleWeight*titleSim + (1-titleWeight)*artistSim

	if titleSim < minTitleSimilarity || artistSim < minArtistSimilarity || score < minOverallSimilarity {
		return score, false
	}
	return score, true
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName lowercases, folds accents, drops bracketed segments and
// version tokens, and collapses separators to single spaces.
func normalizeName(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		folded = s
	}
	folded = stripBracketed(strings.ToLower(folded))

	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	kept := fields[:0]
	for _, f := range fields {
		if !versionTokens[f] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

func stripBracketed(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// similarity is 1 minus the Levenshtein distance over the longer length.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
