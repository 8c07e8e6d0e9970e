package normalize

import (
	"regexp"
	"strings"

	"github.com/ccgtools/cardscan/internal/entity"
)

// Icon evidence scoring. A bracket marker only counts when its surrounding
// line context scores at least 2: this keeps the rulebook's own icon-glossary
// prose (which leaks into OCR text) from being misread as gameplay evidence.
const iconScoreThreshold = 2

var (
	reBracketOnly  = regexp.MustCompile(`^[\s\[\]]*$`)
	rePrefixCue    = regexp.MustCompile(`(?i)(power|hit|damage):\s*$`)
	reAttackPhrase = regexp.MustCompile(`(?i)\b(energy attack|physical attack|attack)\b`)
	reCardsAfter   = regexp.MustCompile(`(?i)^\s*cards?\b`)
	reStyledCards  = regexp.MustCompile(`(?i)styled\b[^.\n]*\bcards`)
	reStyledClose  = regexp.MustCompile(`(?i)styled\s+cards`)
	suffixKeywords = []string{"doing", "causing", "prevent", "stop", "gain", "draw", "discard", "your", "that"}
)

// DetectIcons scans the icon signal text for canonical markers with
// sufficient line context and returns the detected icon names in lexicon
// order, deduplicated.
func DetectIcons(text string, lex *entity.RulebookLexicon) []string {
	if lex == nil || text == "" {
		return nil
	}
	found := map[string]bool{}
	lines := strings.Split(text, "\n")
	for _, ic := range lex.Icons {
		if ic.Marker == "" {
			continue
		}
		for _, line := range lines {
			if markerScore(line, ic.Marker) >= iconScoreThreshold {
				found[ic.Name] = true
				break
			}
		}
	}
	if len(found) == 0 {
		return nil
	}
	out := make([]string, 0, len(found))
	for _, ic := range lex.Icons {
		if found[ic.Name] {
			out = append(out, ic.Name)
		}
	}
	return out
}

// markerScore rates one marker occurrence by its line context. Returns the
// best score across occurrences in the line; minimum int when absent.
func markerScore(line, marker string) int {
	best := -1 << 31
	for idx := strings.Index(line, marker); idx >= 0; {
		prefix := line[:idx]
		suffix := line[idx+len(marker):]
		score := 0

		if reBracketOnly.MatchString(prefix) {
			score += 3
		}
		if rePrefixCue.MatchString(prefix) {
			score += 2
		}
		if suffixStartsWithKeyword(suffix) {
			score += 2
		}
		if reAttackPhrase.MatchString(suffix) {
			score += 2
		}
		if reCardsAfter.MatchString(suffix) {
			score -= 3
		}
		if reStyledClose.MatchString(line) {
			score -= 3
		} else if reStyledCards.MatchString(line) {
			score -= 2
		}

		if score > best {
			best = score
		}
		next := strings.Index(line[idx+len(marker):], marker)
		if next < 0 {
			break
		}
		idx += len(marker) + next
	}
	return best
}

func suffixStartsWithKeyword(suffix string) bool {
	s := strings.ToLower(strings.TrimSpace(suffix))
	for _, kw := range suffixKeywords {
		if strings.HasPrefix(s, kw) {
			return true
		}
	}
	return false
}
