package mood

import (
	"fmt"
	"time"
)

// Analysis is the outcome of classifying one batch of tracks.
type Analysis struct {
	CreatedAt   time.Time         `json:"created_at"`
	OverallMood Emotion           `json:"overall_mood"`
	Counts      map[Emotion]int   `json:"counts"`
	Tracks      []ClassifiedTrack `json:"tracks"`
	Groups      []Group           `json:"groups,omitempty"`
}

// Analyze aggregates classified tracks into an Analysis and groups them by
// score vector.
func Analyze(tracks []ClassifiedTrack, cfg GroupConfig) Analysis {
	labels := make([]Emotion, len(tracks))
	for i, t := range tracks {
		labels[i] = t.Emotion
	}
	if tracks == nil {
		tracks = []ClassifiedTrack{}
	}

	groups, _ := GroupByScores(tracks, cfg)
	return Analysis{
		CreatedAt:   time.Now().UTC(),
		OverallMood: Aggregate(labels),
		Counts:      Counts(labels),
		Tracks:      tracks,
		Groups:      groups,
	}
}

// Summary describes the analysis in one line, e.g. "happy (3 of 5 tracks)".
func (a Analysis) Summary() string {
	labeled := 0
	for _, n := range a.Counts {
		labeled += n
	}
	return fmt.Sprintf("%s (%d of %d tracks)", a.OverallMood, a.Counts[a.OverallMood], labeled)
}
