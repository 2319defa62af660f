package mood

// Description is the display text for an emotion.
type Description struct {
	Name    string `json:"name"`    // Short playlist-style name
	Summary string `json:"summary"` // One-line description
}

// Describe returns a display name and summary for e. Unknown and
// unrecognized labels get a neutral description.
func Describe(e Emotion) Description {
	switch ParseEmotion(string(e)) {
	case Happy:
		return Description{
			Name:    "Feel-Good Mix",
			Summary: "Bright, upbeat songs to keep a good mood going",
		}
	case Sad:
		return Description{
			Name:    "Melancholy Mix",
			Summary: "Tender, reflective songs for heavier days",
		}
	case Angry:
		return Description{
			Name:    "Release Mix",
			Summary: "Loud, cathartic songs to let off steam",
		}
	case Relaxed:
		return Description{
			Name:    "Easy Mix",
			Summary: "Calm, unhurried songs for winding down",
		}
	case Energetic:
		return Description{
			Name:    "High Voltage Mix",
			Summary: "Restless, driving songs with nervous energy",
		}
	default:
		return Description{
			Name:    "Moodify Mix",
			Summary: "Songs picked from your recent listening",
		}
	}
}
