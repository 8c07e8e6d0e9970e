// Package validate routes normalized candidates to accept-or-review. It
// re-runs the legacy-value and cross-field checks the normalizer should have
// handled (defense in depth against a normalizer regression) and scores
// per-field confidence with configurable penalty coefficients.
package validate

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/common"
	"github.com/ccgtools/cardscan/internal/entity"
	"github.com/ccgtools/cardscan/internal/schema"
)

// Penalties holds the multiplicative confidence penalties. Tunables, not
// contracts: they come from config with conservative defaults.
type Penalties struct {
	LLMMissing   float64
	OCRMissing   float64
	NoVision     float64
	TypeConflict float64
}

// Options parameterizes one validation pass.
type Options struct {
	MinConfidence float64
	Penalties     Penalties
}

// OptionsFromConfig lifts the pipeline tunables out of the app config.
func OptionsFromConfig(cfg *common.Config) Options {
	return Options{
		MinConfidence: cfg.Pipeline.MinConfidence,
		Penalties: Penalties{
			LLMMissing:   cfg.Pipeline.PenaltyLLMMissing,
			OCRMissing:   cfg.Pipeline.PenaltyOCRMissing,
			NoVision:     cfg.Pipeline.PenaltyNoVision,
			TypeConflict: cfg.Pipeline.PenaltyTypeConflict,
		},
	}
}

// Outcome is the exclusive accept-or-review result. Exactly one of Card and
// Review is set.
type Outcome struct {
	Accepted bool
	Card     *entity.Card
	Review   *entity.ReviewQueueItem
}

const minCardTextLen = 8

var (
	reLLMFailure   = regexp.MustCompile(`(?i)llm.*(fail|timeout|timed out|unavailable)`)
	reOCRFailure   = regexp.MustCompile(`(?i)(ocr|tesseract|ollama).*(fail|timeout|timed out|unavailable)`)
	rePrintedShape = regexp.MustCompile(`^[A-Za-z]{0,3}\d+$`)
	reLevelCue     = regexp.MustCompile(`(?i)\b(?:lv\.?\s*[1-4]|level\s*[1-4]|[1-4]\s+level|main personality)\b`)
	reEndurance    = regexp.MustCompile(`(?i)\bendurance\b`)
)

// Validate scores one candidate and routes it. Never returns an error: a
// candidate that cannot be accepted becomes a review item, not a failure.
func Validate(cand entity.NormalizedCandidate, opts Options) Outcome {
	card := cand.Card.Clone()

	// Legacy type values may still arrive from older persisted records.
	ct, mainHint, allyHint := constants.CanonicalCardType(string(card.CardType))
	card.CardType = ct
	if allyHint {
		card.IsAlly = true
	}
	if mainHint && !card.IsAlly {
		card.IsMainPersonality = true
	}
	if card.IsAlly {
		card.IsMainPersonality = false
	}

	card.ID = entity.CardID(card.SetCode, card.PrintedNumber)

	llmDown, ocrDown := sourceSignals(card, cand.LLMUsed)

	reasons := newReasonSet()
	failed := criticalChecks(card, reasons)
	consistencyChecks(card, reasons)

	conflict := false
	for _, r := range reasons.list {
		if strings.HasPrefix(r, "type_conflict:") {
			conflict = true
			break
		}
	}

	fields := scoreFields(card, cand, opts.Penalties, llmDown, ocrDown, conflict)
	overall := clamp01(mean(fields))

	if llmDown && !cand.LLMUsed {
		reasons.add(constants.ReasonLLMUnavailable)
	}
	if ocrDown && !cand.LLMUsed {
		reasons.add(constants.ReasonInsufficientOCR)
	}
	if overall < opts.MinConfidence {
		reasons.add(constants.ReasonLowConfidence)
	}

	transformed := schema.Transform(card)
	if err := schema.ValidateCard(transformed); err != nil {
		reasons.add(constants.ReasonSchemaValidationError)
	}

	conf := entity.ConfidenceInfo{Overall: overall, Fields: fields}

	if len(reasons.list) > 0 {
		raw, _ := json.Marshal(card)
		return Outcome{
			Review: &entity.ReviewQueueItem{
				CardID:          card.ID,
				ImagePath:       card.Source.ImagePath,
				Candidate:       raw,
				CandidateValues: candidateValues(card),
				Reasons:         reasons.list,
				FailedFields:    failed,
				Confidence:      conf,
				CreatedAt:       time.Now().UTC(),
			},
		}
	}

	transformed.Confidence = conf
	transformed.Review = entity.ReviewInfo{Required: false}
	return Outcome{Accepted: true, Card: transformed}
}

// sourceSignals scans stored warnings for collaborator failure; these
// downgrade confidence independent of the data's face validity.
func sourceSignals(card *entity.Card, llmUsed bool) (llmDown, ocrDown bool) {
	for _, w := range card.Raw.Warnings {
		if reLLMFailure.MatchString(w) {
			llmDown = true
		}
		if reOCRFailure.MatchString(w) {
			ocrDown = true
		}
	}
	// A successful late retry supersedes earlier failure warnings.
	if llmUsed {
		llmDown = false
	}
	if strings.TrimSpace(card.Raw.OCRText) == "" {
		ocrDown = true
	}
	return llmDown, ocrDown
}

// criticalChecks returns the failed field names and records
// missing_critical_field / rarity_prefix_mismatch reasons.
func criticalChecks(card *entity.Card, reasons *reasonSet) []string {
	var failed []string
	addFailed := func(field string) {
		failed = append(failed, field)
		reasons.add(constants.ReasonMissingCriticalField)
	}

	if card.SetCode == "" {
		addFailed("set_code")
	}
	if card.PrintedNumber == "" {
		addFailed("printed_number")
	}
	if card.RarityPrefix == "" {
		addFailed("rarity_prefix")
	}
	if strings.TrimSpace(card.Name) == "" {
		addFailed("name")
	}
	if card.CardType == "" {
		addFailed("card_type")
	}
	if len(strings.TrimSpace(card.CardTextRaw)) < minCardTextLen {
		addFailed("card_text_raw")
	}

	if card.PrintedNumber != "" && card.RarityPrefix != "" &&
		constants.RarityPrefixFromNumber(card.PrintedNumber) != card.RarityPrefix {
		failed = append(failed, "rarity_prefix")
		reasons.add(constants.ReasonRarityPrefixMismatch)
	}

	if card.IsAlly && card.IsMainPersonality {
		addFailed("is_ally")
	}
	if card.IsAlly && card.CardType != constants.TypePersonality {
		addFailed("card_type")
	}

	if card.CardType == constants.TypePersonality {
		if card.Affiliation == "" {
			addFailed("affiliation")
		}
		if !validLadder(card.PowerStageValues) {
			addFailed("power_stage_values")
		}
		if card.PUR == nil {
			addFailed("pur")
		}
		if card.IsMainPersonality {
			if card.PersonalityLevel == nil {
				addFailed("personality_level")
			}
			if strings.TrimSpace(card.MainPowerText) == "" {
				addFailed("main_power_text")
			}
		}
		if reEndurance.MatchString(card.CardTextRaw) && card.Endurance == nil {
			addFailed("endurance")
		}
	}
	return failed
}

// consistencyChecks covers cross-field conflicts the critical checks do not;
// computed from the raw candidate rather than trusting normalizer output.
func consistencyChecks(card *entity.Card, reasons *reasonSet) {
	if card.PersonalityLevel != nil && card.CardType != constants.TypePersonality {
		reasons.add(constants.TypeConflictReason("level_on_non_personality"))
	}
	if card.CardType == constants.TypePersonality && !card.IsAlly &&
		card.PersonalityLevel == nil &&
		(len(card.PowerStageValues) > 0 || card.PUR != nil) {
		reasons.add(constants.TypeConflictReason("stats_without_level"))
	}
	if card.IsMainPersonality && card.PersonalityLevel == nil &&
		!reLevelCue.MatchString(card.CardTextRaw) {
		reasons.add(constants.TypeConflictReason("main_without_evidence"))
	}
	if card.Style != "" && card.Style != constants.StyleFreestyle &&
		card.CardType == constants.TypePersonality {
		lowered := schema.NormalizeText(card.CardTextRaw + "\n" + card.MainPowerText)
		if !strings.Contains(lowered, card.Style+" style") &&
			!strings.Contains(lowered, card.Style+" mastery") {
			reasons.add(constants.TypeConflictReason("unconfirmed_style"))
		}
	}
}

// validLadder enforces the accepted-card stage invariant: non-increasing,
// exactly one trailing zero, at least four entries.
func validLadder(ladder []int) bool {
	if len(ladder) < 4 {
		return false
	}
	for i := 1; i < len(ladder); i++ {
		if ladder[i] > ladder[i-1] {
			return false
		}
	}
	if ladder[len(ladder)-1] != 0 {
		return false
	}
	return len(ladder) < 2 || ladder[len(ladder)-2] != 0
}

func candidateValues(card *entity.Card) map[string]any {
	vals := map[string]any{
		"name":           card.Name,
		"card_type":      string(card.CardType),
		"printed_number": card.PrintedNumber,
		"rarity_prefix":  card.RarityPrefix,
		"affiliation":    string(card.Affiliation),
	}
	if card.Title != "" {
		vals["title"] = card.Title
	}
	if card.Style != "" {
		vals["style"] = card.Style
	}
	if card.PersonalityLevel != nil {
		vals["personality_level"] = *card.PersonalityLevel
	}
	if card.PUR != nil {
		vals["pur"] = *card.PUR
	}
	if len(card.PowerStageValues) > 0 {
		vals["power_stage_values"] = append([]int(nil), card.PowerStageValues...)
	}
	return vals
}

type reasonSet struct {
	list []string
	seen map[string]bool
}

func newReasonSet() *reasonSet {
	return &reasonSet{seen: map[string]bool{}}
}

func (rs *reasonSet) add(r string) {
	if rs.seen[r] {
		return
	}
	rs.seen[r] = true
	rs.list = append(rs.list, r)
}

func mean(fields map[string]float64) float64 {
	if len(fields) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range fields {
		sum += v
	}
	return sum / float64(len(fields))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
