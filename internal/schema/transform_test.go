package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/entity"
)

func baseCard() *entity.Card {
	pur := 3
	lvl := 2
	return &entity.Card{
		ID:               "HNV-C02",
		SetCode:          "HNV",
		PrintedNumber:    "C02",
		RarityPrefix:     "C",
		Name:             "Nail",
		Title:            "Protector",
		CharacterKey:     "nail",
		CardType:         constants.TypePersonality,
		Affiliation:      constants.AffiliationHero,
		PowerStageValues: []int{1000, 800, 600, 400, 0},
		PUR:              &pur,
		PersonalityLevel: &lvl,
		MainPowerText:    "Energy attack doing 4 life cards of damage.",
		CardTextRaw:      "Energy attack doing 4 life cards of damage.",
		Source: entity.SourceInfo{
			ImagePath:     "/images/HNV/C02-Nail-Lv.-2.jpg",
			ImageFileName: "C02-Nail-Lv.-2.jpg",
		},
		Confidence: entity.ConfidenceInfo{Overall: 0.97},
	}
}

func TestTransformFillsEveryDerivedField(t *testing.T) {
	out := Transform(baseCard())
	m := out.RuleMetadata

	require.NotNil(t, m.ConsideredAsStyledCard)
	require.NotNil(t, m.LimitPerDeck)
	require.NotNil(t, m.BanishedAfterUse)
	require.NotNil(t, m.ShuffleIntoDeckAfterUse)
	require.NotNil(t, m.AttachLimit)
	require.NotNil(t, m.RejuvenateAmount)
	require.NotNil(t, m.RejuvenateConditional)
	require.NotNil(t, m.EnduranceAmount)
	require.NotNil(t, m.EnduranceConditional)
	require.NotNil(t, m.RaiseAngerAmount)
	require.NotNil(t, m.RaiseAngerConditional)
	require.NotNil(t, m.LowerAngerAmount)
	require.NotNil(t, m.LowerAngerConditional)
	require.NotNil(t, m.DrillEntersPlay)
	require.NotNil(t, m.DrillEntersPlayDuringCombat)
	require.NotNil(t, m.AttachToMainPersonality)
}

func TestTransformIsIdempotent(t *testing.T) {
	once := Transform(baseCard())
	twice := Transform(once)
	assert.Equal(t, once, twice)
}

func TestTransformRewritesLegacyTypes(t *testing.T) {
	card := baseCard()
	card.CardType = constants.CardType("main_personality")
	out := Transform(card)
	assert.Equal(t, constants.TypePersonality, out.CardType)
	assert.True(t, out.IsMainPersonality)
	assert.False(t, out.IsAlly)

	card = baseCard()
	card.CardType = constants.CardType("ally")
	out = Transform(card)
	assert.Equal(t, constants.TypePersonality, out.CardType)
	assert.True(t, out.IsAlly)
	assert.False(t, out.IsMainPersonality, "ally forces main personality off")
}

func TestLimitPerDeckDefaults(t *testing.T) {
	card := baseCard()
	card.CardType = constants.TypeCombat
	out := Transform(card)
	assert.Equal(t, 3, *out.RuleMetadata.LimitPerDeck)

	card = baseCard()
	out = Transform(card)
	assert.Equal(t, 1, *out.RuleMetadata.LimitPerDeck, "personality defaults to 1")

	card = baseCard()
	card.CardType = constants.TypeMastery
	out = Transform(card)
	assert.Equal(t, 1, *out.RuleMetadata.LimitPerDeck)

	card = baseCard()
	card.CardType = constants.TypeDragonBall
	out = Transform(card)
	assert.Equal(t, 1, *out.RuleMetadata.LimitPerDeck)
}

func TestLimitPerDeckFromText(t *testing.T) {
	card := baseCard()
	card.CardType = constants.TypeCombat
	card.CardTextRaw = "Limit 2 per deck. Physical attack."
	out := Transform(card)
	assert.Equal(t, 2, *out.RuleMetadata.LimitPerDeck)
}

func TestRejuvenateAmountFromText(t *testing.T) {
	card := baseCard()
	card.CardTextRaw = "Rejuvenate 3."
	out := Transform(card)
	assert.Equal(t, 3, *out.RuleMetadata.RejuvenateAmount)
	assert.False(t, *out.RuleMetadata.RejuvenateConditional)
}

func TestRejuvenateConditionalCue(t *testing.T) {
	card := baseCard()
	card.CardTextRaw = "If your attack is successful, rejuvenate 2."
	out := Transform(card)
	assert.Equal(t, 2, *out.RuleMetadata.RejuvenateAmount)
	assert.True(t, *out.RuleMetadata.RejuvenateConditional)
}

func TestRejuvenateXTokenIsConditional(t *testing.T) {
	card := baseCard()
	card.CardTextRaw = "Rejuvenate X, where X is your anger level."
	out := Transform(card)
	assert.Equal(t, 0, *out.RuleMetadata.RejuvenateAmount)
	assert.True(t, *out.RuleMetadata.RejuvenateConditional)
}

func TestRejuvenateNumberWord(t *testing.T) {
	card := baseCard()
	card.CardTextRaw = "Rejuvenate two when entering combat."
	out := Transform(card)
	assert.Equal(t, 2, *out.RuleMetadata.RejuvenateAmount)
	assert.True(t, *out.RuleMetadata.RejuvenateConditional)
}

func TestEnduranceExplicitZeroDiscarded(t *testing.T) {
	zero := 0
	card := baseCard()
	card.RuleMetadata.EnduranceAmount = &zero
	card.CardTextRaw = "Physical attack doing 5 power stages."
	out := Transform(card)
	assert.Equal(t, 0, *out.RuleMetadata.EnduranceAmount)
	assert.False(t, *out.RuleMetadata.EnduranceConditional)

	card = baseCard()
	card.RuleMetadata.EnduranceAmount = &zero
	card.CardTextRaw = "Endurance 0."
	out = Transform(card)
	assert.Equal(t, 0, *out.RuleMetadata.EnduranceAmount)
}

func TestEnduranceFromText(t *testing.T) {
	card := baseCard()
	card.CardTextRaw = "Endurance 4."
	out := Transform(card)
	assert.Equal(t, 4, *out.RuleMetadata.EnduranceAmount)
}

func TestDrillFlagsOnlyForDrills(t *testing.T) {
	card := baseCard()
	card.CardType = constants.TypeCombat
	card.CardTextRaw = "This card enters play during combat."
	out := Transform(card)
	assert.False(t, *out.RuleMetadata.DrillEntersPlay)
	assert.False(t, *out.RuleMetadata.DrillEntersPlayDuringCombat)

	card = baseCard()
	card.CardType = constants.TypeDrill
	card.CardTextRaw = "This card enters play during combat."
	out = Transform(card)
	assert.True(t, *out.RuleMetadata.DrillEntersPlayDuringCombat)
	assert.True(t, *out.RuleMetadata.DrillEntersPlay, "during combat implies enters play")
}

func TestBanishAndShuffleAfterUse(t *testing.T) {
	card := baseCard()
	card.CardType = constants.TypeCombat
	card.CardTextRaw = "Banished after use."
	out := Transform(card)
	assert.True(t, *out.RuleMetadata.BanishedAfterUse)

	card = baseCard()
	card.CardType = constants.TypeCombat
	card.CardTextRaw = "Shuffle this card into your deck after use."
	out = Transform(card)
	assert.True(t, *out.RuleMetadata.ShuffleIntoDeckAfterUse)
}

func TestStyledCardDefault(t *testing.T) {
	card := baseCard()
	card.CardType = constants.TypeCombat
	card.Style = "red"
	out := Transform(card)
	assert.True(t, *out.RuleMetadata.ConsideredAsStyledCard)

	card = baseCard()
	card.Style = "red"
	out = Transform(card)
	assert.False(t, *out.RuleMetadata.ConsideredAsStyledCard, "personality is not a styled card")
}

func TestValidateCardAcceptsTransformedCard(t *testing.T) {
	out := Transform(baseCard())
	assert.NoError(t, ValidateCard(out))
}

func TestValidateCardRejectsBadShape(t *testing.T) {
	out := Transform(baseCard())
	out.RarityPrefix = "ZZ"
	assert.Error(t, ValidateCard(out))

	out = Transform(baseCard())
	lvl := 9
	out.PersonalityLevel = &lvl
	assert.Error(t, ValidateCard(out))
}
