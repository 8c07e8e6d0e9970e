package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/entity"
	"github.com/ccgtools/cardscan/internal/filename"
	"github.com/ccgtools/cardscan/internal/lexicon"
)

func strPtr(s string) *string { return &s }
func iPtr(n int) *int         { return &n }
func bPtr(b bool) *bool       { return &b }

func imageRef(file string) entity.ImageRef {
	return entity.ImageRef{
		SetCode:       "HNV",
		SetName:       "Heroes and Villains",
		ImagePath:     "/images/HNV/" + file,
		ImageFileName: file,
	}
}

func TestNormalizePersonalityFromOCROnly(t *testing.T) {
	file := "C02-Nail-Protector-Lv.-2-2.jpg"
	in := Input{
		Image:   imageRef(file),
		Priors:  filename.Infer(file),
		OCRText: "NAIL, PROTECTOR\n2 LEVEL\n1000 800 600 400 0\n3 PUR\nPOWER: Energy attack doing 4 life cards of damage.",
		Lexicon: lexicon.Builtin(),
	}

	out := Normalize(in)

	assert.Equal(t, "HNV-C02", out.ID)
	assert.Equal(t, "C02", out.PrintedNumber)
	assert.Equal(t, "C", out.RarityPrefix)
	assert.Equal(t, "Nail", out.Name)
	assert.Equal(t, "Protector", out.Title)
	assert.Equal(t, constants.TypePersonality, out.CardType)
	assert.True(t, out.IsMainPersonality)
	assert.False(t, out.IsAlly)
	require.NotNil(t, out.PersonalityLevel)
	assert.Equal(t, 2, *out.PersonalityLevel)
	require.NotNil(t, out.PUR)
	assert.Equal(t, 3, *out.PUR)
	assert.Equal(t, []int{1000, 800, 600, 400, 0}, out.PowerStageValues)
	assert.Equal(t, "Energy attack doing 4 life cards of damage.", out.MainPowerText)
	assert.Equal(t, "nail", out.CharacterKey)
	assert.False(t, out.LLMUsed)
}

func TestNormalizePrefersLLMText(t *testing.T) {
	file := "U10-Red-Energy-Blast.jpg"
	in := Input{
		Image:   imageRef(file),
		Priors:  filename.Infer(file),
		OCRText: "garbled noise",
		LLMData: entity.ExtractionCandidate{
			Name:        strPtr("Red Energy Blast"),
			CardType:    strPtr("combat"),
			CardTextRaw: strPtr("Red style energy attack doing 6 life cards of damage."),
			Style:       strPtr("red"),
		},
		LLMUsed: true,
		Lexicon: lexicon.Builtin(),
	}

	out := Normalize(in)

	assert.Equal(t, constants.TypeCombat, out.CardType)
	assert.Equal(t, "red", out.Style)
	assert.Equal(t, "Red style energy attack doing 6 life cards of damage.", out.CardTextRaw)
	assert.True(t, out.LLMUsed)
	assert.Nil(t, out.PowerStageValues, "combat cards carry no stage ladder")
}

func TestNormalizeLegacyTypeRewrite(t *testing.T) {
	file := "U22-Krillin.jpg"
	in := Input{
		Image:  imageRef(file),
		Priors: filename.Infer(file),
		LLMData: entity.ExtractionCandidate{
			Name:     strPtr("Krillin"),
			CardType: strPtr("ally"),
		},
		LLMUsed: true,
		Lexicon: lexicon.Builtin(),
	}

	out := Normalize(in)

	assert.Equal(t, constants.TypePersonality, out.CardType)
	assert.True(t, out.IsAlly)
	assert.False(t, out.IsMainPersonality)
}

func TestNormalizeTypeFallsBackToPriorOverUnknown(t *testing.T) {
	file := "S3-Namekian-Mastery.jpg"
	in := Input{
		Image:  imageRef(file),
		Priors: filename.Infer(file),
		LLMData: entity.ExtractionCandidate{
			Name:     strPtr("Namekian Mastery"),
			CardType: strPtr("unknown"),
		},
		LLMUsed: true,
		Lexicon: lexicon.Builtin(),
	}

	out := Normalize(in)
	assert.Equal(t, constants.TypeMastery, out.CardType)
}

func TestNormalizeStyleRequiresConfirmationForMastery(t *testing.T) {
	file := "S3-Namekian-Mastery.jpg"
	in := Input{
		Image:  imageRef(file),
		Priors: filename.Infer(file),
		LLMData: entity.ExtractionCandidate{
			Name:        strPtr("Namekian Mastery"),
			CardType:    strPtr("mastery"),
			CardTextRaw: strPtr("Namekian Mastery. Your anger rises quickly."),
		},
		LLMUsed: true,
		Lexicon: lexicon.Builtin(),
	}

	out := Normalize(in)
	assert.Equal(t, "namekian", out.Style, "mastery allows free style assignment")
}

func TestNormalizeAffiliationFromText(t *testing.T) {
	file := "R50-Guardian-Watch.jpg"
	in := Input{
		Image:  imageRef(file),
		Priors: filename.Infer(file),
		LLMData: entity.ExtractionCandidate{
			Name:        strPtr("Guardian Watch"),
			CardType:    strPtr("event"),
			CardTextRaw: strPtr("Heroes only. Draw a card."),
		},
		LLMUsed: true,
		Lexicon: lexicon.Builtin(),
	}

	out := Normalize(in)
	assert.Equal(t, constants.AffiliationHero, out.Affiliation)
}

func TestNormalizeConflictingAffiliationIsUnknown(t *testing.T) {
	file := "R51-Stand-Off.jpg"
	in := Input{
		Image:  imageRef(file),
		Priors: filename.Infer(file),
		LLMData: entity.ExtractionCandidate{
			Name:        strPtr("Stand Off"),
			CardType:    strPtr("event"),
			CardTextRaw: strPtr("Heroes only. Villains only."),
		},
		LLMUsed: true,
		Lexicon: lexicon.Builtin(),
	}

	out := Normalize(in)
	assert.Equal(t, constants.AffiliationUnknown, out.Affiliation)
}

func TestNormalizeNamedCardInference(t *testing.T) {
	file := "U31-Nails-Protector.jpg"
	in := Input{
		Image:  imageRef(file),
		Priors: filename.Infer(file),
		LLMData: entity.ExtractionCandidate{
			Name:        strPtr("Nail's Protector"),
			CardType:    strPtr("combat"),
			CardTextRaw: strPtr("Physical attack doing 4 power stages."),
		},
		LLMUsed: true,
		Lexicon: lexicon.Builtin(),
	}

	out := Normalize(in)

	assert.Equal(t, "nail", out.CharacterKey)
	assert.Contains(t, out.Tags, "named")
	assert.Equal(t, constants.StyleFreestyle, out.Style)
}

func TestNormalizeNamedCardDenyListSkipsStyles(t *testing.T) {
	file := "U32-Reds-Fury.jpg"
	in := Input{
		Image:  imageRef(file),
		Priors: filename.Infer(file),
		LLMData: entity.ExtractionCandidate{
			Name:        strPtr("Reds Fury"),
			CardType:    strPtr("combat"),
			CardTextRaw: strPtr("Red style attack."),
		},
		LLMUsed: true,
		Lexicon: lexicon.Builtin(),
	}

	out := Normalize(in)
	assert.NotContains(t, out.Tags, "named")
}

func TestNormalizeExplicitFlagsWin(t *testing.T) {
	file := "C11-Goku.jpg"
	in := Input{
		Image:  imageRef(file),
		Priors: filename.Infer(file),
		LLMData: entity.ExtractionCandidate{
			Name:              strPtr("Goku"),
			CardType:          strPtr("personality"),
			IsAlly:            bPtr(true),
			IsMainPersonality: bPtr(true),
			PersonalityLevel:  iPtr(1),
		},
		LLMUsed: true,
		Lexicon: lexicon.Builtin(),
	}

	out := Normalize(in)
	assert.True(t, out.IsAlly)
	assert.False(t, out.IsMainPersonality, "ally always forces main personality off")
}

func TestNormalizeStageLadderFromLLM(t *testing.T) {
	file := "C12-Piccolo-Lv.-1.jpg"
	in := Input{
		Image:  imageRef(file),
		Priors: filename.Infer(file),
		LLMData: entity.ExtractionCandidate{
			Name:             strPtr("Piccolo"),
			CardType:         strPtr("personality"),
			PersonalityLevel: iPtr(1),
			PowerStageValues: []int{900, 700, 700, 500},
			PUR:              iPtr(2),
		},
		LLMUsed: true,
		Lexicon: lexicon.Builtin(),
	}

	out := Normalize(in)
	assert.Equal(t, []int{900, 700, 500, 0}, out.PowerStageValues,
		"consecutive duplicates deduped and trailing zero appended")
}

func TestNormalizeFallsBackToNameGuessText(t *testing.T) {
	file := "P5-Earth-Dragon-Ball-1.jpg"
	in := Input{
		Image:   imageRef(file),
		Priors:  filename.Infer(file),
		Lexicon: lexicon.Builtin(),
	}

	out := Normalize(in)
	assert.NotEmpty(t, out.Name)
	assert.NotEmpty(t, out.CardTextRaw)
}

func TestDetectIconsRequiresContext(t *testing.T) {
	lex := lexicon.Builtin()

	// Marker alone on its own line scores +3.
	icons := DetectIcons("[attack icon] Energy attack doing 4.", lex)
	assert.Contains(t, icons, "attack")

	// Glossary prose: "styled cards" context plus "cards" right after the
	// marker must keep the rulebook legend from counting as evidence.
	icons = DetectIcons("All red styled cards with [attack icon] cards in this set", lex)
	assert.NotContains(t, icons, "attack")
}

func TestRewriteIconGlyphs(t *testing.T) {
	lex := lexicon.Builtin()
	out := RewriteIconGlyphs("POWER: (attack) doing 4. [def] stops it.", lex)
	assert.Contains(t, out, "[attack icon]")
	assert.Contains(t, out, "[defense icon]")
}

func TestStripLevelMarker(t *testing.T) {
	assert.Equal(t, "Nail Protector", StripLevelMarker("Nail Protector Lv. 2"))
	assert.Equal(t, "Goku", StripLevelMarker("Goku - Lv.3"))
	assert.Equal(t, "Cell", StripLevelMarker("Cell"))
}
