package llm

import (
	"regexp"
	"strings"

	"github.com/ccgtools/cardscan/internal/entity"
)

var (
	rePURStat = regexp.MustCompile(`(?i)(?:\bpur\s*:?\s*(\d)|(\d)\s*pur\b)`)
	reEndStat = regexp.MustCompile(`(?i)endurance\s*:?\s*(\d+)`)
)

// Heuristic is the no-model fallback: filename priors plus a couple of cheap
// OCR regex guesses. The normalizer re-derives everything downstream, so
// this stays deliberately thin.
func Heuristic(req Request) entity.ExtractionCandidate {
	var cand entity.ExtractionCandidate

	if name := strings.TrimSpace(req.Priors.NameGuess); name != "" {
		cand.Name = &name
	}
	if ct := req.Priors.CardTypeGuess; ct != "" && ct != "unknown" {
		cand.CardType = &ct
	}
	if req.Priors.PersonalityLevel != nil {
		lvl := *req.Priors.PersonalityLevel
		cand.PersonalityLevel = &lvl
	}
	if style := req.Priors.StyleGuess; style != "" {
		cand.Style = &style
	}

	ocr := strings.TrimSpace(req.OCRText)
	if ocr != "" {
		cand.CardTextRaw = &ocr
	}
	if m := rePURStat.FindStringSubmatch(ocr); m != nil {
		digits := m[1]
		if digits == "" {
			digits = m[2]
		}
		n := int(digits[0] - '0')
		cand.PUR = &n
	}
	if m := reEndStat.FindStringSubmatch(ocr); m != nil {
		n := 0
		for _, ch := range m[1] {
			n = n*10 + int(ch-'0')
		}
		cand.Endurance = &n
	}

	return cand
}
