package validate

import (
	"strings"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/entity"
)

// Per-field base scores. Values that came from the LLM score higher than
// heuristic guesses; presence, length, and plausibility scale the base.
const (
	scoreMissing = 0.2

	scorePresentLLM       = 0.95
	scorePresentHeuristic = 0.92
)

// scoreFields produces the per-field confidence map with the multiplicative
// penalties already applied.
func scoreFields(card *entity.Card, cand entity.NormalizedCandidate, pen Penalties, llmDown, ocrDown, conflict bool) map[string]float64 {
	fromLLM := cand.LLMUsed
	present := func() float64 {
		if fromLLM {
			return scorePresentLLM
		}
		return scorePresentHeuristic
	}

	fields := map[string]float64{}

	switch {
	case strings.TrimSpace(card.Name) == "":
		fields["name"] = scoreMissing
	case len(card.Name) < 3:
		fields["name"] = 0.7
	default:
		fields["name"] = present()
	}

	switch card.CardType {
	case "":
		fields["card_type"] = scoreMissing
	case constants.TypeUnknown:
		fields["card_type"] = 0.5
	default:
		fields["card_type"] = present()
	}

	switch {
	case card.PrintedNumber == "":
		fields["printed_number"] = scoreMissing
	case rePrintedShape.MatchString(card.PrintedNumber):
		fields["printed_number"] = 0.98
	default:
		fields["printed_number"] = 0.6
	}

	switch {
	case card.RarityPrefix == "":
		fields["rarity_prefix"] = scoreMissing
	case constants.RarityPrefixFromNumber(card.PrintedNumber) == card.RarityPrefix:
		fields["rarity_prefix"] = 0.98
	default:
		fields["rarity_prefix"] = 0.3
	}

	switch card.Affiliation {
	case "":
		fields["affiliation"] = scoreMissing
	case constants.AffiliationUnknown:
		fields["affiliation"] = 0.85
	default:
		fields["affiliation"] = present()
	}

	text := strings.TrimSpace(card.CardTextRaw)
	switch {
	case len(text) >= 40:
		fields["card_text_raw"] = present()
	case len(text) >= minCardTextLen:
		fields["card_text_raw"] = 0.85
	default:
		fields["card_text_raw"] = 0.3
	}

	if card.PersonalityLike() {
		switch {
		case len(card.PowerStageValues) == 0:
			fields["power_stage_values"] = scoreMissing
		case validLadder(card.PowerStageValues):
			fields["power_stage_values"] = present()
		default:
			fields["power_stage_values"] = 0.5
		}

		switch {
		case card.PUR == nil:
			fields["pur"] = scoreMissing
		case *card.PUR >= 1 && *card.PUR <= 9:
			fields["pur"] = present()
		default:
			fields["pur"] = 0.7
		}

		if card.IsMainPersonality {
			if lvl := card.PersonalityLevel; lvl != nil && *lvl >= 1 && *lvl <= 4 {
				fields["personality_level"] = present()
			} else {
				fields["personality_level"] = scoreMissing
			}
			switch power := strings.TrimSpace(card.MainPowerText); {
			case power == "":
				fields["main_power_text"] = 0.3
			case len(power) >= 10:
				fields["main_power_text"] = present()
			default:
				fields["main_power_text"] = 0.8
			}
		}
	}

	// LLM hints only ever lower a score; the model reporting doubt about a
	// field beats our face-validity heuristics.
	for name, hint := range cand.ConfidenceHints {
		if base, ok := fields[name]; ok && hint > 0 && hint < base {
			fields[name] = hint
		}
	}

	penalty := 1.0
	if llmDown {
		penalty *= pen.LLMMissing
	}
	if ocrDown {
		penalty *= pen.OCRMissing
	}
	if llmDown && ocrDown {
		// No vision signal at all: the harshest case.
		penalty *= pen.NoVision
	}
	if conflict {
		penalty *= pen.TypeConflict
	}

	for name, v := range fields {
		fields[name] = clamp01(v * penalty)
	}
	return fields
}
