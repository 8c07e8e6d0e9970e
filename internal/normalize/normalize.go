// Package normalize reconciles the three extraction sources (LLM output, OCR
// text, filename priors) into one canonical candidate record. Pure transform:
// it always returns a best-effort candidate and pushes unrecoverable
// ambiguity downstream as low confidence, never as an error.
package normalize

import (
	"regexp"
	"strings"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/entity"
	"github.com/ccgtools/cardscan/internal/schema"
)

// Input bundles everything the normalizer reconciles.
type Input struct {
	Image     entity.ImageRef
	Priors    entity.FilenamePriors
	OCRText   string
	OCRBlocks []string
	LLMData   entity.ExtractionCandidate
	LLMUsed   bool
	Warnings  []string
	Lexicon   *entity.RulebookLexicon
}

var (
	rePURBefore = regexp.MustCompile(`(\d+)\s*pur\b`)
	rePURAfter  = regexp.MustCompile(`\bpur\s*:?\s*(\d+)`)
	reEndBefore = regexp.MustCompile(`(\d+)\s*endurance\b`)
	reEndAfter  = regexp.MustCompile(`\bendurance\s*:?\s*(\d+)`)
	reLvlToken  = regexp.MustCompile(`\b(?:lv\.?\s*|level\s*)([1-4])\b`)
	reLvlBefore = regexp.MustCompile(`\b([1-4])\s+level\b`)
	rePowerLine = regexp.MustCompile(`(?i)power:\s*(.+)`)

	reTypeMainPersonality = regexp.MustCompile(`main personality`)
	reTypeMastery         = regexp.MustCompile(`\bmastery\b`)
	reTypeDragonBall      = regexp.MustCompile(`dragon ball`)
	reTypeDrill           = regexp.MustCompile(`\bdrill\b`)
	reTypeEvent           = regexp.MustCompile(`\bevent\b`)

	reAlphaWord = regexp.MustCompile(`[A-Za-z]+`)
)

// Normalize produces the canonical candidate for one image.
func Normalize(in Input) entity.NormalizedCandidate {
	lex := in.Lexicon

	chosen := strings.TrimSpace(strVal(in.LLMData.CardTextRaw))
	if chosen == "" {
		chosen = strings.TrimSpace(in.OCRText)
	}
	if chosen == "" {
		chosen = in.Priors.NameGuess
	}
	chosen = RewriteIconGlyphs(chosen, lex)

	// Icon detection must see both sources: OCR may preserve markers the
	// LLM paraphrased away.
	iconText := chosen
	ocrRewritten := RewriteIconGlyphs(in.OCRText, lex)
	if ocrRewritten != "" && ocrRewritten != chosen {
		iconText = chosen + "\n" + ocrRewritten
	}

	lowered := schema.NormalizeText(chosen)

	cardType := resolveCardType(in, lowered)
	name, title := splitNameTitle(in, cardType)

	candidate := entity.NormalizedCandidate{
		ConfidenceHints: in.LLMData.Confidence,
		LLMUsed:         in.LLMUsed,
	}
	card := &candidate.Card

	card.SetCode = in.Image.SetCode
	card.SetName = in.Image.SetName
	card.PrintedNumber = in.Priors.PrintedNumber
	card.RarityPrefix = in.Priors.RarityPrefix
	card.ID = entity.CardID(card.SetCode, card.PrintedNumber)
	card.Name = name
	card.Title = title
	card.CardType = cardType
	card.CardTextRaw = chosen
	card.CardSubtypes = append([]string(nil), in.LLMData.CardSubtypes...)
	card.Tags = append([]string(nil), in.LLMData.Tags...)
	card.EffectChunks = effectChunks(in.LLMData.EffectChunks, chosen)
	card.Icons = DetectIcons(iconText, lex)

	card.CharacterKey = resolveCharacterKey(in, name)

	card.IsAlly, card.IsMainPersonality = resolveFlags(in, card, lowered)
	// Legacy type value may have forced personality.
	if card.IsAlly || card.IsMainPersonality {
		card.CardType = constants.TypePersonality
	}

	card.Affiliation = resolveAffiliation(in, card, lowered)

	applyNamedCardInference(card, lex)

	card.Style = resolveStyle(in, card, lowered)

	personalityLike := card.PersonalityLike() || in.Priors.PersonalityLevel != nil
	if personalityLike {
		card.PowerStageValues = resolveStageLadder(in.LLMData.PowerStageValues, iconText)
		card.PUR = resolvePUR(in.LLMData.PUR, lowered)
		card.PersonalityLevel = resolveLevel(in, lowered)
	}
	card.Endurance = resolveEnduranceStat(in.LLMData.Endurance, lowered)
	card.MainPowerText = resolveMainPowerText(in, personalityLike)

	if card.CharacterKey != "" && card.PersonalityLike() {
		card.PersonalityFamilyID = card.CharacterKey
	}

	card.Source = entity.SourceInfo{
		ImagePath:     in.Image.ImagePath,
		ImageFileName: in.Image.ImageFileName,
		ImageURL:      in.Image.ImageURL,
	}
	card.Raw = entity.RawExtraction{
		OCRText:   in.OCRText,
		OCRBlocks: append([]string(nil), in.OCRBlocks...),
		Warnings:  append([]string(nil), in.Warnings...),
	}

	card.RuleMetadata = in.LLMData.RuleMetadata
	resolved := schema.Transform(card)
	candidate.Card = *resolved

	return candidate
}

func resolveCardType(in Input, lowered string) constants.CardType {
	raw := strVal(in.LLMData.CardType)
	ct, _, _ := constants.CanonicalCardType(raw)
	if ct != constants.TypeUnknown {
		return ct
	}

	// LLM said unknown (or nothing); a non-unknown prior wins.
	priorType, _, _ := constants.CanonicalCardType(in.Priors.CardTypeGuess)
	if priorType != constants.TypeUnknown {
		return priorType
	}

	switch {
	case reTypeMainPersonality.MatchString(lowered):
		return constants.TypePersonality
	case reTypeMastery.MatchString(lowered):
		return constants.TypeMastery
	case reTypeDragonBall.MatchString(lowered):
		return constants.TypeDragonBall
	case reTypeDrill.MatchString(lowered):
		return constants.TypeDrill
	case reTypeEvent.MatchString(lowered):
		return constants.TypeEvent
	}
	return priorType
}

func resolveCharacterKey(in Input, name string) string {
	if v := strVal(in.LLMData.CharacterKey); v != "" {
		return kebab(v)
	}
	if in.Priors.CharacterKey != "" {
		return in.Priors.CharacterKey
	}
	if w := firstAlphaWord(name); w != "" {
		return strings.ToLower(w)
	}
	return ""
}

func resolvePUR(explicit *int, lowered string) *int {
	if explicit != nil {
		return explicit
	}
	if m := rePURBefore.FindStringSubmatch(lowered); m != nil {
		return intPtr(atoi(m[1]))
	}
	if m := rePURAfter.FindStringSubmatch(lowered); m != nil {
		return intPtr(atoi(m[1]))
	}
	return nil
}

func resolveEnduranceStat(explicit *int, lowered string) *int {
	if explicit != nil {
		return explicit
	}
	if m := reEndAfter.FindStringSubmatch(lowered); m != nil {
		return intPtr(atoi(m[1]))
	}
	if m := reEndBefore.FindStringSubmatch(lowered); m != nil {
		return intPtr(atoi(m[1]))
	}
	return nil
}

func resolveLevel(in Input, lowered string) *int {
	if in.LLMData.PersonalityLevel != nil {
		return in.LLMData.PersonalityLevel
	}
	if in.Priors.PersonalityLevel != nil {
		lvl := *in.Priors.PersonalityLevel
		return &lvl
	}
	if m := reLvlToken.FindStringSubmatch(lowered); m != nil {
		return intPtr(atoi(m[1]))
	}
	if m := reLvlBefore.FindStringSubmatch(lowered); m != nil {
		return intPtr(atoi(m[1]))
	}
	return nil
}

func resolveMainPowerText(in Input, personalityLike bool) string {
	if v := strings.TrimSpace(strVal(in.LLMData.MainPowerText)); v != "" {
		return v
	}
	if !personalityLike {
		return ""
	}
	for _, src := range []string{strVal(in.LLMData.CardTextRaw), in.OCRText} {
		if m := rePowerLine.FindStringSubmatch(src); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func effectChunks(explicit []string, text string) []string {
	if len(explicit) > 0 {
		return append([]string(nil), explicit...)
	}
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	if len(out) <= 1 {
		return nil
	}
	return out
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intPtr(n int) *int { return &n }

func atoi(s string) int {
	n := 0
	for _, ch := range s {
		n = n*10 + int(ch-'0')
	}
	return n
}

func firstAlphaWord(s string) string {
	return reAlphaWord.FindString(s)
}

func kebab(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	}), "-")
}
