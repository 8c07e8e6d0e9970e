package schema

import (
	"github.com/ccgtools/cardscan/constants"
)

// BuildCardJSONSchema returns the strict persisted-card schema (draft 2020-12
// subset) as a generic map. Used locally to validate before accept.
func BuildCardJSONSchema() map[string]any {
	nonNegInt := map[string]any{"type": "integer", "minimum": 0}

	amountProps := map[string]any{}
	for _, k := range []string{
		"rejuvenate_amount", "endurance_amount",
		"raise_anger_amount", "lower_anger_amount",
		"limit_per_deck", "attach_limit",
	} {
		amountProps[k] = nonNegInt
	}
	for _, k := range []string{
		"considered_as_styled_card", "banished_after_use",
		"shuffle_into_deck_after_use", "rejuvenate_conditional",
		"endurance_conditional", "raise_anger_conditional",
		"lower_anger_conditional", "drill_enters_play",
		"drill_enters_play_during_combat", "attach_to_main_personality",
	} {
		amountProps[k] = map[string]any{"type": "boolean"}
	}

	stringArray := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	props := map[string]any{
		"id":                    map[string]any{"type": "string", "pattern": `^[A-Za-z0-9]+-[A-Za-z]*\d+$`},
		"set_code":              map[string]any{"type": "string", "minLength": 1},
		"set_name":              map[string]any{"type": "string"},
		"printed_number":        map[string]any{"type": "string", "pattern": `^[A-Za-z]*\d+$`},
		"rarity_prefix":         map[string]any{"type": "string", "enum": []any{"C", "U", "R", "UR", "DR", "S", "P", "UNK"}},
		"name":                  map[string]any{"type": "string", "minLength": 1},
		"title":                 map[string]any{"type": "string"},
		"character_key":         map[string]any{"type": "string"},
		"personality_family_id": map[string]any{"type": "string"},
		"card_type":             map[string]any{"type": "string", "enum": toAnySlice(constants.CardTypeStrings())},
		"affiliation":           map[string]any{"type": "string", "enum": []any{"hero", "villain", "neutral", "unknown"}},
		"is_main_personality":   map[string]any{"type": "boolean"},
		"is_ally":               map[string]any{"type": "boolean"},
		"card_subtypes":         stringArray,
		"style":                 map[string]any{"type": "string"},
		"tags":                  stringArray,
		"power_stage_values":    map[string]any{"type": "array", "items": nonNegInt},
		"pur":                   nonNegInt,
		"endurance":             nonNegInt,
		"personality_level":     map[string]any{"type": "integer", "minimum": 1, "maximum": 4},
		"main_power_text":       map[string]any{"type": "string"},
		"card_text_raw":         map[string]any{"type": "string"},
		"effect_chunks":         stringArray,
		"icons":                 stringArray,
		"rule_metadata": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           amountProps,
		},
		"source": map[string]any{
			"type":     "object",
			"required": []any{"image_path", "image_file_name"},
			"properties": map[string]any{
				"image_path":      map[string]any{"type": "string", "minLength": 1},
				"image_file_name": map[string]any{"type": "string", "minLength": 1},
				"image_url":       map[string]any{"type": "string"},
			},
		},
		"confidence": map[string]any{
			"type":     "object",
			"required": []any{"overall"},
			"properties": map[string]any{
				"overall": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
				"fields": map[string]any{
					"type":                 "object",
					"additionalProperties": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
				},
			},
		},
		"review": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"required": map[string]any{"type": "boolean"},
				"reasons":  stringArray,
				"notes":    map[string]any{"type": "string"},
			},
		},
		"raw": map[string]any{"type": "object"},
	}

	required := []any{
		"id", "set_code", "printed_number", "rarity_prefix", "name",
		"card_type", "affiliation", "rule_metadata", "source", "confidence",
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
