package llm

import (
	"github.com/ccgtools/cardscan/constants"
)

// BuildExtractionJSONSchema returns the strict schema (draft 2020-12 subset)
// model responses must satisfy. Every field is optional: "required in the
// end" invariants belong to the normalizer and validator, and the quality
// heuristic rejects responses too thin to be useful.
func BuildExtractionJSONSchema() map[string]any {
	nonNegInt := map[string]any{"type": "integer", "minimum": 0}
	stringArray := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	metadataProps := map[string]any{}
	for _, k := range []string{
		"rejuvenate_amount", "endurance_amount",
		"raise_anger_amount", "lower_anger_amount",
		"limit_per_deck", "attach_limit",
	} {
		metadataProps[k] = nonNegInt
	}
	for _, k := range []string{
		"considered_as_styled_card", "banished_after_use",
		"shuffle_into_deck_after_use", "rejuvenate_conditional",
		"endurance_conditional", "raise_anger_conditional",
		"lower_anger_conditional", "drill_enters_play",
		"drill_enters_play_during_combat", "attach_to_main_personality",
	} {
		metadataProps[k] = map[string]any{"type": "boolean"}
	}

	props := map[string]any{
		"name":                map[string]any{"type": "string", "minLength": 1},
		"title":               map[string]any{"type": "string"},
		"character_key":       map[string]any{"type": "string"},
		// Legacy tokens stay accepted here; the normalizer rewrites them.
		"card_type": map[string]any{"type": "string", "enum": toAnySlice(append(
			constants.CardTypeStrings(),
			constants.LegacyMainPersonality, constants.LegacyAlly,
		))},
		"affiliation":         map[string]any{"type": "string", "enum": []any{"hero", "villain", "neutral", "unknown"}},
		"is_main_personality": map[string]any{"type": "boolean"},
		"is_ally":             map[string]any{"type": "boolean"},
		"card_subtypes":       stringArray,
		"style":               map[string]any{"type": "string"},
		"tags":                stringArray,
		"power_stage_values":  map[string]any{"type": "array", "items": nonNegInt},
		"pur":                 nonNegInt,
		"endurance":           nonNegInt,
		"personality_level":   map[string]any{"type": "integer", "minimum": 1, "maximum": 4},
		"main_power_text":     map[string]any{"type": "string"},
		"card_text_raw":       map[string]any{"type": "string"},
		"effect_chunks":       stringArray,
		"icons":               stringArray,
		"rule_metadata": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           metadataProps,
		},
		"confidence": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []any{},
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
