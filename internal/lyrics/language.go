package lyrics

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

const (
	// DefaultEnglishThreshold is the minimum detector confidence for English.
	DefaultEnglishThreshold = 0.90

	// minDetectLength is the shortest text the detector is asked about.
	minDetectLength = 20
)

// lyricLanguages are the candidate languages the detector chooses between.
// Restricting the set keeps model loading cheap.
var lyricLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Dutch,
	lingua.Swedish,
	lingua.Korean,
	lingua.Japanese,
	lingua.Chinese,
}

// detectFunc returns whether the top-ranked language is English and the
// detector's confidence in that top guess.
type detectFunc func(text string) (english bool, confidence float64)

// LanguageFilter decides whether lyrics are English. It fails closed: a
// disabled filter, short text or a detector failure all mean "not English".
type LanguageFilter struct {
	threshold float64
	enabled   bool

	once   sync.Once
	build  func() detectFunc
	detect detectFunc
}

// NewLanguageFilter creates an enabled filter backed by lingua. The detector
// models are loaded on first use.
func NewLanguageFilter(threshold float64) *LanguageFilter {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultEnglishThreshold
	}
	return &LanguageFilter{
		threshold: threshold,
		enabled:   true,
		build:     newLinguaDetect,
	}
}

// DisabledLanguageFilter returns a filter whose capability is absent.
func DisabledLanguageFilter() *LanguageFilter {
	return &LanguageFilter{threshold: DefaultEnglishThreshold}
}

// Available reports whether language identification is configured.
func (f *LanguageFilter) Available() bool {
	return f != nil && f.enabled
}

// Threshold returns the minimum English confidence.
func (f *LanguageFilter) Threshold() float64 {
	return f.threshold
}

// IsEnglish reports whether text is English with at least the configured confidence.
func (f *LanguageFilter) IsEnglish(text string) (english bool) {
	if !f.Available() {
		return false
	}

	text = strings.TrimSpace(text)
	if len(text) < minDetectLength {
		return false
	}

	f.once.Do(func() {
		if f.detect == nil && f.build != nil {
			f.detect = f.build()
		}
	})
	if f.detect == nil {
		return false
	}

	defer func() {
		if recover() != nil {
			english = false
		}
	}()

	isEnglish, confidence := f.detect(text)
	return isEnglish && confidence >= f.threshold
}

func newLinguaDetect() detectFunc {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lyricLanguages...).
		Build()

	return func(text string) (bool, float64) {
		values := detector.ComputeLanguageConfidenceValues(text)
		if len(values) == 0 {
			return false, 0
		}
		top := values[0]
		return top.Language() == lingua.English, top.Value()
	}
}
