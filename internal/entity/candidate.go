package entity

// FilenamePriors is the structured guess parsed from an image file name.
// Created once per image, immutable after creation.
type FilenamePriors struct {
	FileStem         string `json:"file_stem"`
	PrintedNumber    string `json:"printed_number"`
	RarityPrefix     string `json:"rarity_prefix"`
	NameGuess        string `json:"name_guess"`
	PersonalityLevel *int   `json:"personality_level,omitempty"`
	CharacterKey     string `json:"character_key,omitempty"`
	StyleGuess       string `json:"style_guess,omitempty"`
	CardTypeGuess    string `json:"card_type_guess"`
}

// ExtractionCandidate is the loosely-typed bag of fields produced by the LLM
// (or the heuristic fallback). Every field is optional; "required in the end"
// invariants live in the normalizer and validator, never here.
type ExtractionCandidate struct {
	Name              *string            `json:"name,omitempty"`
	Title             *string            `json:"title,omitempty"`
	CharacterKey      *string            `json:"character_key,omitempty"`
	CardType          *string            `json:"card_type,omitempty"`
	Affiliation       *string            `json:"affiliation,omitempty"`
	IsMainPersonality *bool              `json:"is_main_personality,omitempty"`
	IsAlly            *bool              `json:"is_ally,omitempty"`
	CardSubtypes      []string           `json:"card_subtypes,omitempty"`
	Style             *string            `json:"style,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	PowerStageValues  []int              `json:"power_stage_values,omitempty"`
	PUR               *int               `json:"pur,omitempty"`
	Endurance         *int               `json:"endurance,omitempty"`
	PersonalityLevel  *int               `json:"personality_level,omitempty"`
	MainPowerText     *string            `json:"main_power_text,omitempty"`
	CardTextRaw       *string            `json:"card_text_raw,omitempty"`
	EffectChunks      []string           `json:"effect_chunks,omitempty"`
	Icons             []string           `json:"icons,omitempty"`
	RuleMetadata      RuleMetadata       `json:"rule_metadata,omitempty"`
	Confidence        map[string]float64 `json:"confidence,omitempty"`
}

// NormalizedCandidate is the persisted Card shape plus two transient fields,
// stripped before validation.
type NormalizedCandidate struct {
	Card
	ConfidenceHints map[string]float64 `json:"-"`
	LLMUsed         bool               `json:"-"`
}
