package mood

import "slices"

// Aggregate returns the most frequent label. Empty and Unknown labels are
// ignored; Unknown is returned when nothing else remains.
//
// Ties go to the label that comes first in Emotions. Labels outside the
// closed set rank after it, in the order they were first seen.
func Aggregate(labels []Emotion) Emotion {
	counts := Counts(labels)
	if len(counts) == 0 {
		return Unknown
	}

	order := make([]Emotion, 0, len(counts))
	order = append(order, Emotions...)
	for _, l := range labels {
		if !l.Valid() && l != "" && l != Unknown && !slices.Contains(order, l) {
			order = append(order, l)
		}
	}

	best, bestCount := Unknown, 0
	for _, e := range order {
		if counts[e] > bestCount {
			best, bestCount = e, counts[e]
		}
	}
	return best
}

// Counts tallies labels, skipping empty and Unknown ones.
func Counts(labels []Emotion) map[Emotion]int {
	counts := make(map[Emotion]int)
	for _, l := range labels {
		if l == "" || l == Unknown {
			continue
		}
		counts[l]++
	}
	return counts
}

// OverallMood aggregates the labels of classified tracks.
func OverallMood(tracks []ClassifiedTrack) Emotion {
	labels := make([]Emotion, len(tracks))
	for i, t := range tracks {
		labels[i] = t.Emotion
	}
	return Aggregate(labels)
}
