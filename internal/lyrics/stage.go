package lyrics

import (
	"strings"
	"unicode"
)

// IsStageComment reports whether the text inside a pair of parentheses is a
// structural annotation ("Chorus", "Verse 2") rather than an interjection
// that is sung aloud ("yeah", "oh no").
func (c StageConfig) IsStageComment(inner string) bool {
	lowered := strings.ToLower(strings.TrimSpace(inner))
	if lowered == "" {
		return false
	}

	for _, kw := range c.Keywords {
		if containsAtWordStart(lowered, strings.ToLower(kw)) {
			return true
		}
	}

	switch c.Policy {
	case PolicyShortToken:
		maxLen := c.ShortTokenLen
		if maxLen <= 0 {
			maxLen = DefaultStageConfig().ShortTokenLen
		}
		return len([]rune(lowered)) <= maxLen && isAlnumSpace(lowered)
	default:
		maxWords := c.LongSpanWords
		if maxWords <= 0 {
			maxWords = DefaultStageConfig().LongSpanWords
		}
		return len(strings.Fields(lowered)) > maxWords
	}
}

// containsAtWordStart reports whether kw occurs in s starting at a word
// boundary, so "verse" matches "verse 1" and "verse1" but "beat" does not
// match "heartbeat".
func containsAtWordStart(s, kw string) bool {
	if kw == "" {
		return false
	}
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], kw)
		if i < 0 {
			return false
		}
		pos := offset + i
		if pos == 0 || !isWordByte(s[pos-1]) {
			return true
		}
		offset = pos + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isAlnumSpace(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
