// Package lyrics cleans crowd-sourced lyrics transcriptions into a canonical
// lowercase text suitable for length filtering and emotion classification.
package lyrics

// StagePolicy selects the heuristic used alongside the keyword match when
// deciding whether parenthetical text is a stage direction.
type StagePolicy string

const (
	// PolicyLongSpan treats spans of more than LongSpanWords words as stage directions.
	PolicyLongSpan StagePolicy = "long-span"
	// PolicyShortToken treats short letter/digit-only spans (e.g. "v1") as stage directions.
	PolicyShortToken StagePolicy = "short-token"
)

// DefaultBadKeywords are attribution and site-chrome phrases. A line whose
// lowercased form contains any of them is dropped.
var DefaultBadKeywords = []string{
	"you might also like",
	"embed",
	"track info",
	"more on genius",
	"lyrics powered by",
	"produced by",
	"written by",
	"composed by",
	"recorded at",
	"mastered by",
	"engineered by",
}

// DefaultStageKeywords are performance and song-structure terms.
var DefaultStageKeywords = []string{
	"chorus", "verse", "bridge", "hook", "intro", "outro",
	"pre-chorus", "pre chorus", "post-chorus", "post chorus", "refrain",
	"background", "vocals", "beat", "instrumental",
	"guitar", "solo", "spoken", "talking", "whisper",
	"laughs", "applause", "crowd",
}

// StageConfig configures the stage-comment classifier.
type StageConfig struct {
	Keywords      []string    // Matched at a word start, case-insensitive
	Policy        StagePolicy // Secondary heuristic (default: PolicyLongSpan)
	LongSpanWords int         // PolicyLongSpan: more words than this is a stage direction (default: 6)
	ShortTokenLen int         // PolicyShortToken: this many chars or fewer is a stage direction (default: 4)
}

// DefaultStageConfig returns the recommended stage-comment configuration.
func DefaultStageConfig() StageConfig {
	return StageConfig{
		Keywords:      DefaultStageKeywords,
		Policy:        PolicyLongSpan,
		LongSpanWords: 6,
		ShortTokenLen: 4,
	}
}

// Config holds every cleaning option. Each flag enables one stage of Normalize.
type Config struct {
	RemoveURLs            bool     // Strip http… and www.… tokens
	BadKeywords           []string // Drop lines containing any of these phrases
	RemoveSectionHeaders  bool     // Drop "[Chorus]" lines and strip inline [...] spans
	RemoveStageComments   bool     // Delete parenthetical stage directions, keep interjections
	MergePunctuationLines bool     // Glue a lone punctuation line onto its neighbours
	Lowercase             bool     // Lowercase the joined text
	Stage                 StageConfig
}

// DefaultConfig returns the recommended cleaning configuration.
func DefaultConfig() Config {
	return Config{
		RemoveURLs:           true,
		BadKeywords:          DefaultBadKeywords,
		RemoveSectionHeaders: true,
		RemoveStageComments:  true,
		Lowercase:            true,
		Stage:                DefaultStageConfig(),
	}
}
