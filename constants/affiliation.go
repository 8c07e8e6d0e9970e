package constants

import "strings"

// Affiliation is which side of the board a card belongs to.
type Affiliation string

const (
	AffiliationHero    Affiliation = "hero"
	AffiliationVillain Affiliation = "villain"
	AffiliationNeutral Affiliation = "neutral"
	AffiliationUnknown Affiliation = "unknown"
)

// CanonicalAffiliation folds free-form affiliation labels onto the enum.
func CanonicalAffiliation(raw string) Affiliation {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hero", "heroes", "heroic":
		return AffiliationHero
	case "villain", "villains", "villainous":
		return AffiliationVillain
	case "neutral":
		return AffiliationNeutral
	}
	return AffiliationUnknown
}
