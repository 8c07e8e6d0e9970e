package constants

import "strings"

// CardType is the canonical card type for persisted cards.
type CardType string

// Stable values (store these exact strings on disk).
const (
	TypePersonality CardType = "personality"
	TypeMastery     CardType = "mastery"
	TypeDrill       CardType = "drill"
	TypeCombat      CardType = "combat"
	TypeEvent       CardType = "event"
	TypeSetup       CardType = "setup"
	TypeDragonBall  CardType = "dragon_ball"
	TypeUnknown     CardType = "unknown"
)

// Legacy card-type tokens found in older records. They are rewritten to
// TypePersonality plus the matching boolean flag at every entry point.
const (
	LegacyMainPersonality = "main_personality"
	LegacyAlly            = "ally"
)

var allCardTypes = []CardType{
	TypePersonality,
	TypeMastery,
	TypeDrill,
	TypeCombat,
	TypeEvent,
	TypeSetup,
	TypeDragonBall,
	TypeUnknown,
}

// CardTypeStrings returns the canonical card types as strings.
func CardTypeStrings() []string {
	result := make([]string, len(allCardTypes))
	for i, t := range allCardTypes {
		result[i] = string(t)
	}
	return result
}

// CanonicalCardType maps a raw card-type token to its canonical value and
// reports legacy hints for isMainPersonality / isAlly. This is the single
// legacy-normalization pass shared by the normalizer, the validator, the
// schema transform, and the migration tool. Idempotent: canonical input
// passes through unchanged with no hints.
func CanonicalCardType(raw string) (ct CardType, mainHint, allyHint bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case LegacyMainPersonality:
		return TypePersonality, true, false
	case LegacyAlly:
		return TypePersonality, false, true
	case "":
		return TypeUnknown, false, false
	}
	for _, t := range allCardTypes {
		if s == string(t) {
			return t, false, false
		}
	}
	return TypeUnknown, false, false
}
