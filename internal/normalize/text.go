package normalize

import (
	"regexp"
	"strings"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/entity"
)

// Inline glyphs and shorthand the scrapers and OCR produce for icons. All
// pattern matching downstream sees only the canonical bracket markers.
var glyphRewrites = []struct {
	re     *regexp.Regexp
	marker string
}{
	{regexp.MustCompile(`(?i)[⚔🗡]|\[(atk|attack)\]|\((atk|attack)\)`), "[attack icon]"},
	{regexp.MustCompile(`(?i)[🛡⛨]|\[(def|defense|defence)\]|\((def|defense|defence)\)`), "[defense icon]"},
	{regexp.MustCompile(`(?i)[∞♾]|\[(const|constant)\]|\((const|constant)\)`), "[constant icon]"},
	{regexp.MustCompile(`(?i)[⏱⌛⏳]|\[(timing)\]|\((timing)\)`), "[timing icon]"},
}

var reLevelMarker = regexp.MustCompile(`(?i)\s*[-–—,]?\s*\blv\.?\s*-?\s*[1-4]\b\.?`)

// RewriteIconGlyphs rewrites inline icon glyphs/symbols to their canonical
// bracket markers before any pattern matching.
func RewriteIconGlyphs(text string, lex *entity.RulebookLexicon) string {
	if text == "" {
		return ""
	}
	out := text
	for _, gr := range glyphRewrites {
		out = gr.re.ReplaceAllString(out, markerFor(gr.marker, lex))
	}
	return out
}

// markerFor prefers the lexicon's marker string for the icon when present.
func markerFor(fallback string, lex *entity.RulebookLexicon) string {
	if lex == nil {
		return fallback
	}
	name := strings.TrimSuffix(strings.TrimPrefix(fallback, "["), " icon]")
	for _, ic := range lex.Icons {
		if ic.Name == name && ic.Marker != "" {
			return ic.Marker
		}
	}
	return fallback
}

// StripLevelMarker removes "Lv. N" style tokens from a raw name.
func StripLevelMarker(name string) string {
	out := reLevelMarker.ReplaceAllString(name, "")
	return strings.TrimSpace(strings.Trim(out, " -–—,"))
}

// splitNameTitle separates the character name from the card title. For
// personality cards lacking an explicit title, the filename-derived
// multi-word guess is aligned against the normalized character key, falling
// back to a last-word heuristic.
func splitNameTitle(in Input, cardType constants.CardType) (name, title string) {
	rawName := strVal(in.LLMData.Name)
	if rawName == "" {
		rawName = in.Priors.NameGuess
	}
	name = StripLevelMarker(rawName)
	title = strings.TrimSpace(strVal(in.LLMData.Title))
	if title != "" {
		return name, title
	}

	personalityLike := cardType == constants.TypePersonality ||
		in.Priors.PersonalityLevel != nil
	if !personalityLike {
		return name, ""
	}

	words := strings.Fields(name)
	if len(words) < 2 {
		return name, ""
	}

	key := in.Priors.CharacterKey
	if key != "" {
		keyWords := strings.Split(key, "-")
		if len(keyWords) < len(words) && alignsWith(words, keyWords) {
			return strings.Join(words[:len(keyWords)], " "),
				strings.Join(words[len(keyWords):], " ")
		}
	}

	// Last-word heuristic: treat the trailing word as the title.
	return strings.Join(words[:len(words)-1], " "), words[len(words)-1]
}

func alignsWith(words, keyWords []string) bool {
	for i, kw := range keyWords {
		if !strings.EqualFold(words[i], kw) {
			return false
		}
	}
	return true
}
