package mood

import "testing"

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		labels []Emotion
		want   Emotion
	}{
		{"empty", nil, Unknown},
		{"all absent", []Emotion{"", "", Unknown}, Unknown},
		{"plurality", []Emotion{Happy, Happy, Sad}, Happy},
		{"absent labels ignored", []Emotion{"", Sad, "", Happy, Sad}, Sad},
		{"tie goes to declaration order", []Emotion{Sad, Happy}, Happy},
		{"tie later in order", []Emotion{Energetic, Relaxed, Angry, Energetic, Relaxed, Angry}, Angry},
		{"single label", []Emotion{Energetic}, Energetic},
		{"unlisted label can win", []Emotion{"mellow", "mellow", Happy}, "mellow"},
		{"closed set wins tie with unlisted", []Emotion{"mellow", Relaxed}, Relaxed},
		{"unlisted ties by first seen", []Emotion{"groovy", "mellow", "mellow", "groovy"}, "groovy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.labels); got != tt.want {
				t.Errorf("Aggregate(%v) = %q, want %q", tt.labels, got, tt.want)
			}
		})
	}
}

func TestOverallMood(t *testing.T) {
	tracks := []ClassifiedTrack{
		{Emotion: Sad},
		{Emotion: ""},
		{Emotion: Angry},
		{Emotion: Sad},
	}
	if got := OverallMood(tracks); got != Sad {
		t.Errorf("OverallMood() = %q, want %q", got, Sad)
	}
	if got := OverallMood(nil); got != Unknown {
		t.Errorf("OverallMood(nil) = %q, want %q", got, Unknown)
	}
}

func TestCounts(t *testing.T) {
	got := Counts([]Emotion{Happy, "", Happy, Unknown, Sad})
	if len(got) != 2 || got[Happy] != 2 || got[Sad] != 1 {
		t.Errorf("Counts() = %v, want map[happy:2 sad:1]", got)
	}
}
