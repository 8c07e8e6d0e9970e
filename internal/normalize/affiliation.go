package normalize

import (
	"regexp"
	"strings"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/entity"
)

var (
	reHeroesOnly   = regexp.MustCompile(`heroes only`)
	reVillainsOnly = regexp.MustCompile(`villains only`)
	reHeroic       = regexp.MustCompile(`\bheroic\b`)
	reVillainous   = regexp.MustCompile(`\bvillainous\b`)
	reMainCue      = regexp.MustCompile(`\b(?:lv\.?\s*[1-4]|level\s*[1-4]|main personality)\b`)
)

// resolveAffiliation unions explicit value, subtypes, tags, and detected
// text phrases into a token set, then resolves: hero when hero tokens are
// present and villain tokens absent (symmetric for villain); neutral only
// when neither side has tokens and a neutral token exists; unknown otherwise.
func resolveAffiliation(in Input, card *entity.Card, lowered string) constants.Affiliation {
	tokens := map[constants.Affiliation]bool{}

	add := func(raw string) {
		if a := constants.CanonicalAffiliation(raw); a != constants.AffiliationUnknown {
			tokens[a] = true
		}
	}

	add(strVal(in.LLMData.Affiliation))
	for _, s := range card.CardSubtypes {
		add(s)
	}
	for _, s := range card.Tags {
		add(s)
	}
	if reHeroesOnly.MatchString(lowered) || reHeroic.MatchString(lowered) {
		tokens[constants.AffiliationHero] = true
	}
	if reVillainsOnly.MatchString(lowered) || reVillainous.MatchString(lowered) {
		tokens[constants.AffiliationVillain] = true
	}

	hero := tokens[constants.AffiliationHero]
	villain := tokens[constants.AffiliationVillain]
	switch {
	case hero && !villain:
		return constants.AffiliationHero
	case villain && !hero:
		return constants.AffiliationVillain
	case !hero && !villain && tokens[constants.AffiliationNeutral]:
		return constants.AffiliationNeutral
	}
	return constants.AffiliationUnknown
}

// resolveFlags derives isAlly and isMainPersonality. Explicit booleans take
// precedence; otherwise legacy type values, subtype/tag membership, lexicon
// ally keywords, and (cautiously) "heroes/villains only" phrasing on a
// level-less personality card are consulted. isAlly always forces
// isMainPersonality off.
func resolveFlags(in Input, card *entity.Card, lowered string) (isAlly, isMain bool) {
	_, legacyMain, legacyAlly := constants.CanonicalCardType(strVal(in.LLMData.CardType))

	isAlly = legacyAlly
	if in.LLMData.IsAlly != nil {
		isAlly = *in.LLMData.IsAlly
	} else if !isAlly {
		isAlly = hasAllySignal(in, card, lowered)
	}

	if in.LLMData.IsMainPersonality != nil {
		isMain = *in.LLMData.IsMainPersonality
	} else {
		isMain = legacyMain || hasMainSignal(in, card, lowered)
	}

	if isAlly {
		isMain = false
	}
	return isAlly, isMain
}

func hasAllySignal(in Input, card *entity.Card, lowered string) bool {
	for _, s := range card.CardSubtypes {
		if strings.EqualFold(s, "ally") {
			return true
		}
	}
	for _, s := range card.Tags {
		if strings.EqualFold(s, "ally") {
			return true
		}
	}
	// Keyword evidence is weaker than a level marker: a main personality
	// whose power text mentions allies is still a main personality.
	if in.Lexicon != nil && card.CardType == constants.TypePersonality &&
		in.Priors.PersonalityLevel == nil && !reMainCue.MatchString(lowered) {
		for _, kw := range in.Lexicon.AllyKeywords {
			if containsWord(lowered, strings.ToLower(kw)) {
				return true
			}
		}
	}
	// "Heroes only" / "villains only" on a personality card with no level
	// marker reads as an ally restriction, not a main personality.
	if card.CardType == constants.TypePersonality &&
		in.Priors.PersonalityLevel == nil &&
		!reMainCue.MatchString(lowered) &&
		(reHeroesOnly.MatchString(lowered) || reVillainsOnly.MatchString(lowered)) {
		return true
	}
	return false
}

// hasMainSignal requires personality card type plus an explicit level, a
// level/main-personality text cue, or the prior's level.
func hasMainSignal(in Input, card *entity.Card, lowered string) bool {
	if card.CardType != constants.TypePersonality {
		return false
	}
	if in.LLMData.PersonalityLevel != nil || in.Priors.PersonalityLevel != nil {
		return true
	}
	return reMainCue.MatchString(lowered)
}

// resolveStyle only accepts a style when the text confirms it ("{style}
// style" / "{style} mastery") or the card type allows free assignment
// (combat, event, setup, drill, mastery, unknown).
func resolveStyle(in Input, card *entity.Card, lowered string) string {
	style := strings.ToLower(strings.TrimSpace(strVal(in.LLMData.Style)))
	if style == "" {
		style = in.Priors.StyleGuess
	}
	if style == "" {
		style = card.Style // named-card inference may have defaulted it
	}
	if style == "" {
		return ""
	}
	if _, ok := constants.StyleFromToken(style); !ok {
		return ""
	}

	if strings.Contains(lowered, style+" style") || strings.Contains(lowered, style+" mastery") {
		return style
	}
	switch card.CardType {
	case constants.TypeCombat, constants.TypeEvent, constants.TypeSetup,
		constants.TypeDrill, constants.TypeMastery, constants.TypeUnknown:
		return style
	}
	return ""
}

// Words that can never be a named-card owner.
var ownerDenyList = map[string]bool{
	"hero": true, "heroes": true, "villain": true, "villains": true,
	"neutral": true,
}

var rePossessive = regexp.MustCompile(`^([A-Za-z]+)'s$`)

// applyNamedCardInference tags non-personality, non-dragon-ball cards whose
// name is possessive (e.g. "Nail's Protector") with an owning character key
// and defaults their style to freestyle unless overridden.
func applyNamedCardInference(card *entity.Card, lex *entity.RulebookLexicon) {
	if card.CardType == constants.TypePersonality ||
		card.CardType == constants.TypeDragonBall ||
		card.IsAlly || card.IsMainPersonality {
		return
	}
	words := strings.Fields(card.Name)
	if len(words) < 2 {
		return
	}

	first := words[0]
	var owner string
	if m := rePossessive.FindStringSubmatch(first); m != nil {
		owner = m[1]
	} else if strings.HasSuffix(first, "s'") {
		owner = strings.TrimSuffix(first, "'")
		owner = strings.TrimSuffix(owner, "s")
	} else if strings.HasSuffix(strings.ToLower(first), "s") && len(first) > 3 {
		// bare plural possessive, e.g. "Nails Protector"
		owner = strings.TrimSuffix(first, "s")
	}
	if owner == "" {
		return
	}

	lowerOwner := strings.ToLower(owner)
	if ownerDenyList[lowerOwner] {
		return
	}
	if _, isStyle := constants.StyleFromToken(lowerOwner); isStyle {
		return
	}
	if _, isStyle := constants.StyleFromToken(strings.ToLower(first)); isStyle {
		return
	}

	card.CharacterKey = kebab(owner)
	if !containsFold(card.Tags, "named") {
		card.Tags = append(card.Tags, "named")
	}
	if card.Style == "" {
		card.Style = constants.StyleFreestyle
	}
}

// containsWord reports whether text contains kw on word boundaries; kw may
// be a multi-word phrase.
func containsWord(text, kw string) bool {
	if kw == "" {
		return false
	}
	for idx := strings.Index(text, kw); idx >= 0; {
		beforeOK := idx == 0 || !isLetter(text[idx-1])
		end := idx + len(kw)
		afterOK := end == len(text) || !isLetter(text[end])
		if beforeOK && afterOK {
			return true
		}
		next := strings.Index(text[idx+1:], kw)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func containsFold(ss []string, want string) bool {
	for _, s := range ss {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
