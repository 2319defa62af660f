package lyrics

import (
	"regexp"
	"strings"
)

var (
	urlRe           = regexp.MustCompile(`http\S+|www\.\S+`)
	sectionHeaderRe = regexp.MustCompile(`^\s*\[.*?\]\s*$`)
	inlineBracketRe = regexp.MustCompile(`\[.*?\]`)
	parenRe         = regexp.MustCompile(`\((.*?)\)`)
	disallowedLower = regexp.MustCompile(`[^a-z0-9\s.,!?'"]`)
	disallowedMixed = regexp.MustCompile(`[^a-zA-Z0-9\s.,!?'"]`)
	horizontalWSRe  = regexp.MustCompile(`[ \t]+`)
	blankRunRe      = regexp.MustCompile(`\n{2,}`)

	quoteReplacer = strings.NewReplacer(
		"’", "'",
		"‘", "'",
		"“", `"`,
		"”", `"`,
	)
)

// punctuationLines are the single-character lines MergePunctuationLines glues back.
var punctuationLines = map[string]bool{",": true, ".": true, "!": true, "?": true, ";": true, ":": true}

// Normalizer cleans lyrics according to a fixed Config.
type Normalizer struct {
	cfg Config
}

// NewNormalizer creates a Normalizer. A zero Stage config falls back to DefaultStageConfig.
func NewNormalizer(cfg Config) *Normalizer {
	if cfg.Stage.Keywords == nil && cfg.Stage.Policy == "" {
		cfg.Stage = DefaultStageConfig()
	}
	return &Normalizer{cfg: cfg}
}

var defaultNormalizer = NewNormalizer(DefaultConfig())

// Normalize cleans raw lyrics with DefaultConfig.
func Normalize(raw string) string {
	return defaultNormalizer.Normalize(raw)
}

// Normalize cleans one lyrics blob. Lines are filtered one at a time (URLs,
// boilerplate, section headers, stage comments) and the survivors are joined,
// lowercased and restricted to letters, digits, whitespace and . , ! ? ' ".
// Returns "" when nothing survives; it never fails.
func (n *Normalizer) Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if line, ok := n.cleanLine(line); ok {
			kept = append(kept, line)
		}
	}

	if len(kept) == 0 {
		return ""
	}

	if n.cfg.MergePunctuationLines {
		kept = mergePunctuationLines(kept)
	}

	joined := quoteReplacer.Replace(strings.Join(kept, "\n"))

	if n.cfg.Lowercase {
		joined = strings.ToLower(joined)
		joined = disallowedLower.ReplaceAllString(joined, " ")
	} else {
		joined = disallowedMixed.ReplaceAllString(joined, " ")
	}

	joined = horizontalWSRe.ReplaceAllString(joined, " ")
	joined = blankRunRe.ReplaceAllString(joined, "\n")

	return tidyLines(joined)
}

// cleanLine applies the per-line stages in order. It returns false when the
// line should be dropped.
func (n *Normalizer) cleanLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}

	if n.cfg.RemoveURLs {
		line = strings.TrimSpace(urlRe.ReplaceAllString(line, ""))
		if line == "" {
			return "", false
		}
	}

	lower := strings.ToLower(line)
	for _, kw := range n.cfg.BadKeywords {
		if strings.Contains(lower, kw) {
			return "", false
		}
	}

	if n.cfg.RemoveSectionHeaders {
		if sectionHeaderRe.MatchString(line) {
			return "", false
		}
		line = strings.TrimSpace(inlineBracketRe.ReplaceAllString(line, ""))
		if line == "" {
			return "", false
		}
	}

	if n.cfg.RemoveStageComments {
		line = parenRe.ReplaceAllStringFunc(line, func(span string) string {
			inner := span[1 : len(span)-1]
			if n.cfg.Stage.IsStageComment(inner) {
				return ""
			}
			return span
		})
		line = strings.TrimSpace(line)
		if line == "" {
			return "", false
		}
	}

	return line, true
}

// mergePunctuationLines glues a lone punctuation line that sits between two
// lines onto the previous line and pulls the next line up after it.
func mergePunctuationLines(lines []string) []string {
	merged := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if punctuationLines[line] && i > 0 && i < len(lines)-1 && len(merged) > 0 {
			prev := merged[len(merged)-1]
			merged[len(merged)-1] = strings.TrimRight(prev, " \t") + line + " " + strings.TrimLeft(lines[i+1], " \t")
			i++
			continue
		}
		merged = append(merged, line)
	}
	return merged
}

// tidyLines trims each line and drops lines the character filter emptied,
// which keeps Normalize idempotent on its own output.
func tidyLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
