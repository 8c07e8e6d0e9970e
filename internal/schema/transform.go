// Package schema owns the persisted-record shape: the deterministic
// post-validation transform that resolves every derived rule-metadata field,
// and the strict JSON-Schema check for the Card document.
package schema

import (
	"regexp"
	"strings"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/entity"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)

	reRejuvenate = regexp.MustCompile(`rejuvenat\w*`)
	reEndurance  = regexp.MustCompile(`endurance`)
	reRaiseAnger = regexp.MustCompile(`raise\w*[^.;\n]*anger`)
	reLowerAnger = regexp.MustCompile(`lower\w*[^.;\n]*anger`)

	reEnduranceZero = regexp.MustCompile(`endurance:?\s*0\b`)

	reLimitPerDeck = regexp.MustCompile(`limit:?\s*(\d+|one|two|three|four|five|six|seven|eight|nine|ten)\s+per\s+deck`)
	reAttachLimit  = regexp.MustCompile(`attach[^.;\n]*limit:?\s*(\d+|one|two|three|four|five|six|seven|eight|nine|ten)`)

	reBanished     = regexp.MustCompile(`(banish\w*|remove\w* from the game) after use`)
	reShuffleAfter = regexp.MustCompile(`shuffle\w*[^.;\n]*into[^.;\n]*deck[^.;\n]*after use`)
	reStyledCard   = regexp.MustCompile(`considered [^.;\n]*styled card`)
	reEntersPlay   = regexp.MustCompile(`enters? play`)
	reEntersCombat = regexp.MustCompile(`enters? play during combat`)
	reAttachToMain = regexp.MustCompile(`attach\w*[^.;\n]*to your main personality`)
)

// styledEligible are the types whose cards count as styled cards when they
// carry a style.
var styledEligible = map[constants.CardType]bool{
	constants.TypeCombat:  true,
	constants.TypeEvent:   true,
	constants.TypeSetup:   true,
	constants.TypeDrill:   true,
	constants.TypeMastery: true,
}

// Transform resolves every derived field of a card using the strict priority
// order: explicit value, then text-pattern inference, then type-based
// default. It is a fixed point on valid input: transforming an already
// transformed card yields a field-for-field identical record.
func Transform(card *entity.Card) *entity.Card {
	out := card.Clone()

	// Legacy type pass (idempotent; shared with normalizer and validator).
	ct, mainHint, allyHint := constants.CanonicalCardType(string(out.CardType))
	out.CardType = ct
	if mainHint {
		out.IsMainPersonality = true
	}
	if allyHint {
		out.IsAlly = true
	}
	if out.IsAlly {
		out.IsMainPersonality = false
	}

	if out.RarityPrefix == "" {
		out.RarityPrefix = constants.RarityPrefixFromNumber(out.PrintedNumber)
	}
	if out.SetCode != "" && out.PrintedNumber != "" {
		out.ID = entity.CardID(out.SetCode, out.PrintedNumber)
	}

	text := NormalizeText(out.CardTextRaw + "\n" + out.MainPowerText)
	m := &out.RuleMetadata

	m.ConsideredAsStyledCard = resolveBool(m.ConsideredAsStyledCard,
		reStyledCard.MatchString(text),
		out.Style != "" && styledEligible[out.CardType])

	m.LimitPerDeck = resolveLimitPerDeck(m.LimitPerDeck, text, out.CardType)

	m.BanishedAfterUse = resolveBool(m.BanishedAfterUse, reBanished.MatchString(text), false)
	m.ShuffleIntoDeckAfterUse = resolveBool(m.ShuffleIntoDeckAfterUse, reShuffleAfter.MatchString(text), false)

	m.AttachLimit = resolveAttachLimit(m.AttachLimit, text)

	rej := resolveAmount(m.RejuvenateAmount, m.RejuvenateConditional, text, reRejuvenate)
	m.RejuvenateAmount, m.RejuvenateConditional = intPtr(rej.Amount), boolPtr(rej.Conditional)

	end := resolveEndurance(m.EnduranceAmount, m.EnduranceConditional, text)
	m.EnduranceAmount, m.EnduranceConditional = intPtr(end.Amount), boolPtr(end.Conditional)

	raise := resolveAmount(m.RaiseAngerAmount, m.RaiseAngerConditional, text, reRaiseAnger)
	m.RaiseAngerAmount, m.RaiseAngerConditional = intPtr(raise.Amount), boolPtr(raise.Conditional)

	lower := resolveAmount(m.LowerAngerAmount, m.LowerAngerConditional, text, reLowerAnger)
	m.LowerAngerAmount, m.LowerAngerConditional = intPtr(lower.Amount), boolPtr(lower.Conditional)

	resolveDrillFlags(m, text, out.CardType)

	m.AttachToMainPersonality = resolveBool(m.AttachToMainPersonality, reAttachToMain.MatchString(text), false)

	return out
}

// NormalizeText lower-cases and collapses whitespace for pattern matching,
// preserving the newline/period/semicolon clause boundaries.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = reWhitespace.ReplaceAllString(strings.TrimSpace(ln), " ")
	}
	return strings.Join(lines, "\n")
}

func resolveBool(explicit *bool, patternHit bool, typeDefault bool) *bool {
	if explicit != nil {
		return explicit
	}
	if patternHit {
		return boolPtr(true)
	}
	return boolPtr(typeDefault)
}

func resolveLimitPerDeck(explicit *int, text string, ct constants.CardType) *int {
	if explicit != nil && *explicit > 0 {
		return explicit
	}
	if m := reLimitPerDeck.FindStringSubmatch(text); m != nil {
		if n, ok := parseValueToken(m[1]); ok && n > 0 {
			return intPtr(n)
		}
	}
	switch ct {
	case constants.TypePersonality, constants.TypeMastery, constants.TypeDragonBall:
		return intPtr(1)
	}
	return intPtr(3)
}

func resolveAttachLimit(explicit *int, text string) *int {
	if explicit != nil {
		return explicit
	}
	if m := reAttachLimit.FindStringSubmatch(text); m != nil {
		if n, ok := parseValueToken(m[1]); ok {
			return intPtr(n)
		}
	}
	return intPtr(0)
}

// resolveEndurance applies the shared amount routine with the endurance
// guard: an explicit literal 0 is discarded unless the text itself says
// "endurance 0" / "endurance: 0". Guards against spurious zero-defaults
// leaking out of the extraction layer.
func resolveEndurance(explicitAmount *int, explicitConditional *bool, text string) AmountResult {
	if explicitAmount != nil && *explicitAmount == 0 && !reEnduranceZero.MatchString(text) {
		explicitAmount = nil
	}
	return resolveAmount(explicitAmount, explicitConditional, text, reEndurance)
}

// resolveDrillFlags: drill-enters-play flags only apply to drill-typed cards,
// and "during combat" implies the general enters-play flag.
func resolveDrillFlags(m *entity.RuleMetadata, text string, ct constants.CardType) {
	if ct != constants.TypeDrill {
		m.DrillEntersPlay = boolPtr(false)
		m.DrillEntersPlayDuringCombat = boolPtr(false)
		return
	}
	during := resolveBool(m.DrillEntersPlayDuringCombat, reEntersCombat.MatchString(text), false)
	enters := resolveBool(m.DrillEntersPlay, reEntersPlay.MatchString(text), false)
	if *during {
		enters = boolPtr(true)
	}
	m.DrillEntersPlay = enters
	m.DrillEntersPlayDuringCombat = during
}

func parseValueToken(tok string) (int, bool) {
	if n, ok := numberWords[tok]; ok {
		return n, true
	}
	n := 0
	for _, ch := range tok {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		n = n*10 + int(ch-'0')
	}
	return n, true
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }
