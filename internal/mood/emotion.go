// Package mood classifies cleaned lyrics into coarse emotions, picks the
// overall mood of a listening batch and recommends library tracks that
// share it.
package mood

import (
	"slices"
	"strings"
)

// Emotion is one of the five coarse mood categories.
type Emotion string

// The closed set of emotions, in declaration order. Aggregate breaks ties
// in this order.
const (
	Happy     Emotion = "happy"
	Sad       Emotion = "sad"
	Angry     Emotion = "angry"
	Relaxed   Emotion = "relaxed"
	Energetic Emotion = "energetic"
)

// Unknown is the overall mood of a batch with no labeled tracks.
const Unknown Emotion = "unknown"

// Emotions lists the closed set in declaration order.
var Emotions = []Emotion{Happy, Sad, Angry, Relaxed, Energetic}

// Score is one model-native label with its probability.
type Score struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// MapLabel maps a model-native label into the closed set.
// joy, optimism, love → happy; sadness, grief → sad; anger → angry;
// disgust, fear → energetic; anything else → relaxed.
func MapLabel(native string) Emotion {
	switch strings.ToLower(strings.TrimSpace(native)) {
	case "joy", "optimism", "love":
		return Happy
	case "sadness", "grief":
		return Sad
	case "anger":
		return Angry
	case "disgust", "fear":
		return Energetic
	default:
		return Relaxed
	}
}

// ParseEmotion lowercases and trims s. It does not restrict the result to
// the closed set; library files may carry other labels.
func ParseEmotion(s string) Emotion {
	return Emotion(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether e is in the closed set.
func (e Emotion) Valid() bool {
	return slices.Contains(Emotions, e)
}

// topScore returns the highest-scoring label. The first wins on equal scores.
func topScore(scores []Score) (Score, bool) {
	if len(scores) == 0 {
		return Score{}, false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best, true
}
