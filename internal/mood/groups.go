package mood

import (
	"fmt"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// GroupConfig holds sub-mood grouping parameters.
type GroupConfig struct {
	NumGroups    int // Number of k-means clusters (default: 3)
	MinGroupSize int // Smaller clusters become outliers (default: 2)
}

// DefaultGroupConfig returns the recommended default configuration.
func DefaultGroupConfig() GroupConfig {
	return GroupConfig{
		NumGroups:    3,
		MinGroupSize: 2,
	}
}

// Group is a cluster of tracks with similar emotion score vectors.
type Group struct {
	Name     string             `json:"name"`     // e.g. "Feel-Good Mix (joy)"
	Emotion  Emotion            `json:"emotion"`  // Plurality emotion of the group's tracks
	Tracks   []ClassifiedTrack  `json:"tracks"`   // Tracks in this group
	Centroid map[string]float64 `json:"centroid"` // Mean score per native label
}

// scoreObservation wraps a track to implement clusters.Observation.
type scoreObservation struct {
	track  *ClassifiedTrack
	coords clusters.Coordinates
}

func (o scoreObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o scoreObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// GroupByScores clusters classified tracks on their native score vectors
// with k-means. Returns groups (largest first) and outlier tracks. Tracks
// without scores are outliers.
func GroupByScores(tracks []ClassifiedTrack, cfg GroupConfig) ([]Group, []ClassifiedTrack) {
	if len(tracks) == 0 {
		return nil, nil
	}
	if cfg.NumGroups <= 0 {
		cfg.NumGroups = DefaultGroupConfig().NumGroups
	}

	var valid []*ClassifiedTrack
	var outliers []ClassifiedTrack
	for i := range tracks {
		t := &tracks[i]
		if len(t.Scores) > 0 {
			valid = append(valid, t)
		} else {
			outliers = append(outliers, *t)
		}
	}

	if len(valid) < cfg.NumGroups {
		for _, t := range valid {
			outliers = append(outliers, *t)
		}
		return nil, outliers
	}

	labels := nativeLabels(valid)

	var obs clusters.Observations
	for _, t := range valid {
		obs = append(obs, scoreObservation{track: t, coords: scoreVector(t.Scores, labels)})
	}

	result, err := kmeans.New().Partition(obs, cfg.NumGroups)
	if err != nil {
		for _, t := range valid {
			outliers = append(outliers, *t)
		}
		return nil, outliers
	}

	var groups []Group
	for _, cluster := range result {
		var members []ClassifiedTrack
		for _, o := range cluster.Observations {
			if so, ok := o.(scoreObservation); ok {
				members = append(members, *so.track)
			}
		}

		if len(members) == 0 {
			continue
		}
		if len(members) < cfg.MinGroupSize {
			outliers = append(outliers, members...)
			continue
		}

		centroid := make(map[string]float64, len(labels))
		for i, l := range labels {
			centroid[l] = cluster.Center[i]
		}

		emotion := OverallMood(members)
		groups = append(groups, Group{
			Name:     groupName(emotion, centroid),
			Emotion:  emotion,
			Tracks:   members,
			Centroid: centroid,
		})
	}

	slices.SortStableFunc(groups, func(a, b Group) int {
		return len(b.Tracks) - len(a.Tracks)
	})

	return groups, outliers
}

// nativeLabels returns the sorted union of native labels across tracks.
func nativeLabels(tracks []*ClassifiedTrack) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, t := range tracks {
		for _, s := range t.Scores {
			if !seen[s.Label] {
				seen[s.Label] = true
				labels = append(labels, s.Label)
			}
		}
	}
	slices.Sort(labels)
	return labels
}

// scoreVector lays scores out in label order; missing labels score 0.
func scoreVector(scores []Score, labels []string) clusters.Coordinates {
	byLabel := make(map[string]float64, len(scores))
	for _, s := range scores {
		byLabel[s.Label] = s.Score
	}
	coords := make(clusters.Coordinates, len(labels))
	for i, l := range labels {
		coords[i] = byLabel[l]
	}
	return coords
}

// groupName combines the emotion's display name with the strongest native
// label of the centroid.
func groupName(e Emotion, centroid map[string]float64) string {
	top, best := "", -1.0
	for label, score := range centroid {
		if score > best || (score == best && label < top) {
			top, best = label, score
		}
	}
	name := Describe(e).Name
	if top == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, top)
}
