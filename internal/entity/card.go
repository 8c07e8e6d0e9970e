package entity

import (
	"encoding/json"
	"fmt"

	"github.com/ccgtools/cardscan/constants"
)

// Card is the canonical accepted record, persisted to the cards collection.
// Identity is id = "{set_code}-{printed_number}".
type Card struct {
	ID                  string                `json:"id"`
	SetCode             string                `json:"set_code"`
	SetName             string                `json:"set_name,omitempty"`
	PrintedNumber       string                `json:"printed_number"`
	RarityPrefix        string                `json:"rarity_prefix"`
	Name                string                `json:"name"`
	Title               string                `json:"title,omitempty"`
	CharacterKey        string                `json:"character_key,omitempty"`
	PersonalityFamilyID string                `json:"personality_family_id,omitempty"`
	CardType            constants.CardType    `json:"card_type"`
	Affiliation         constants.Affiliation `json:"affiliation"`
	IsMainPersonality   bool                  `json:"is_main_personality"`
	IsAlly              bool                  `json:"is_ally"`
	CardSubtypes        []string              `json:"card_subtypes,omitempty"`
	Style               string                `json:"style,omitempty"`
	Tags                []string              `json:"tags,omitempty"`
	PowerStageValues    []int                 `json:"power_stage_values,omitempty"`
	PUR                 *int                  `json:"pur,omitempty"`
	Endurance           *int                  `json:"endurance,omitempty"`
	PersonalityLevel    *int                  `json:"personality_level,omitempty"`
	MainPowerText       string                `json:"main_power_text,omitempty"`
	CardTextRaw         string                `json:"card_text_raw,omitempty"`
	EffectChunks        []string              `json:"effect_chunks,omitempty"`
	Icons               []string              `json:"icons,omitempty"`
	RuleMetadata        RuleMetadata          `json:"rule_metadata"`
	Source              SourceInfo            `json:"source"`
	Confidence          ConfidenceInfo        `json:"confidence"`
	Review              ReviewInfo            `json:"review"`
	Raw                 RawExtraction         `json:"raw"`
}

// RuleMetadata holds the derived rule fields. Fields are pointers so that a
// record written before a field existed reads back as absent and gets
// re-derived by the schema transform; the transform guarantees every field is
// set on its output.
type RuleMetadata struct {
	ConsideredAsStyledCard      *bool `json:"considered_as_styled_card,omitempty"`
	LimitPerDeck                *int  `json:"limit_per_deck,omitempty"`
	BanishedAfterUse            *bool `json:"banished_after_use,omitempty"`
	ShuffleIntoDeckAfterUse     *bool `json:"shuffle_into_deck_after_use,omitempty"`
	AttachLimit                 *int  `json:"attach_limit,omitempty"`
	RejuvenateAmount            *int  `json:"rejuvenate_amount,omitempty"`
	RejuvenateConditional       *bool `json:"rejuvenate_conditional,omitempty"`
	EnduranceAmount             *int  `json:"endurance_amount,omitempty"`
	EnduranceConditional        *bool `json:"endurance_conditional,omitempty"`
	RaiseAngerAmount            *int  `json:"raise_anger_amount,omitempty"`
	RaiseAngerConditional       *bool `json:"raise_anger_conditional,omitempty"`
	LowerAngerAmount            *int  `json:"lower_anger_amount,omitempty"`
	LowerAngerConditional       *bool `json:"lower_anger_conditional,omitempty"`
	DrillEntersPlay             *bool `json:"drill_enters_play,omitempty"`
	DrillEntersPlayDuringCombat *bool `json:"drill_enters_play_during_combat,omitempty"`
	AttachToMainPersonality     *bool `json:"attach_to_main_personality,omitempty"`
}

// SourceInfo records where the card image came from.
type SourceInfo struct {
	ImagePath     string `json:"image_path"`
	ImageFileName string `json:"image_file_name"`
	ImageURL      string `json:"image_url,omitempty"`
}

// ConfidenceInfo is the validator's scoring output.
type ConfidenceInfo struct {
	Overall float64            `json:"overall"`
	Fields  map[string]float64 `json:"fields,omitempty"`
}

// ReviewInfo is carried on accepted cards too (required=false) so a later
// rescan can see why an earlier run flagged the card.
type ReviewInfo struct {
	Required bool     `json:"required"`
	Reasons  []string `json:"reasons,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// RawExtraction preserves the collaborator outputs that produced this card.
type RawExtraction struct {
	OCRText   string          `json:"ocr_text,omitempty"`
	OCRBlocks []string        `json:"ocr_blocks,omitempty"`
	LLMJSON   json.RawMessage `json:"llm_json,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
}

// CardID computes the canonical identity for a set code + printed number.
func CardID(setCode, printedNumber string) string {
	return fmt.Sprintf("%s-%s", setCode, printedNumber)
}

// PersonalityLike reports whether the card carries personality stats
// (stage ladder, PUR) by type or by flag.
func (c *Card) PersonalityLike() bool {
	return c.CardType == constants.TypePersonality || c.IsMainPersonality || c.IsAlly
}

// Clone returns a deep copy. Reprint reuse rewrites identity fields on the
// copy without touching the source record.
func (c *Card) Clone() *Card {
	out := *c
	out.CardSubtypes = append([]string(nil), c.CardSubtypes...)
	out.Tags = append([]string(nil), c.Tags...)
	out.PowerStageValues = append([]int(nil), c.PowerStageValues...)
	out.EffectChunks = append([]string(nil), c.EffectChunks...)
	out.Icons = append([]string(nil), c.Icons...)
	out.PUR = cloneInt(c.PUR)
	out.Endurance = cloneInt(c.Endurance)
	out.PersonalityLevel = cloneInt(c.PersonalityLevel)
	out.RuleMetadata = c.RuleMetadata.clone()
	out.Confidence.Fields = cloneFloatMap(c.Confidence.Fields)
	out.Review.Reasons = append([]string(nil), c.Review.Reasons...)
	out.Raw.OCRBlocks = append([]string(nil), c.Raw.OCRBlocks...)
	out.Raw.Warnings = append([]string(nil), c.Raw.Warnings...)
	out.Raw.LLMJSON = append(json.RawMessage(nil), c.Raw.LLMJSON...)
	return &out
}

func (m RuleMetadata) clone() RuleMetadata {
	out := m
	out.ConsideredAsStyledCard = cloneBool(m.ConsideredAsStyledCard)
	out.LimitPerDeck = cloneInt(m.LimitPerDeck)
	out.BanishedAfterUse = cloneBool(m.BanishedAfterUse)
	out.ShuffleIntoDeckAfterUse = cloneBool(m.ShuffleIntoDeckAfterUse)
	out.AttachLimit = cloneInt(m.AttachLimit)
	out.RejuvenateAmount = cloneInt(m.RejuvenateAmount)
	out.RejuvenateConditional = cloneBool(m.RejuvenateConditional)
	out.EnduranceAmount = cloneInt(m.EnduranceAmount)
	out.EnduranceConditional = cloneBool(m.EnduranceConditional)
	out.RaiseAngerAmount = cloneInt(m.RaiseAngerAmount)
	out.RaiseAngerConditional = cloneBool(m.RaiseAngerConditional)
	out.LowerAngerAmount = cloneInt(m.LowerAngerAmount)
	out.LowerAngerConditional = cloneBool(m.LowerAngerConditional)
	out.DrillEntersPlay = cloneBool(m.DrillEntersPlay)
	out.DrillEntersPlayDuringCombat = cloneBool(m.DrillEntersPlayDuringCombat)
	out.AttachToMainPersonality = cloneBool(m.AttachToMainPersonality)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	b := *v
	return &b
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
