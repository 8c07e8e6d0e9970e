package constants

import "strings"

// Rarity prefixes as printed at the front of a card number (e.g. "C02", "UR4").
// UNK marks a number whose letter prefix is not in the table.
var rarityNames = map[string]string{
	"C":   "common",
	"U":   "uncommon",
	"R":   "rare",
	"UR":  "ultra_rare",
	"DR":  "dragon_rare",
	"S":   "starter",
	"P":   "promo",
	"UNK": "unknown",
}

// UnknownPrintedNumber is the prior used when a filename carries no number evidence.
const UnknownPrintedNumber = "UNK000"

// RarityPrefixFromNumber derives the rarity prefix from a printed number's
// leading letters. Returns "UNK" when the prefix is absent or not in the table.
func RarityPrefixFromNumber(printedNumber string) string {
	s := strings.ToUpper(strings.TrimSpace(printedNumber))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	prefix := s[:i]
	if _, ok := rarityNames[prefix]; !ok || prefix == "" || prefix == "UNK" {
		return "UNK"
	}
	return prefix
}

// RarityName returns the display name for a rarity prefix ("unknown" if unmapped).
func RarityName(prefix string) string {
	if name, ok := rarityNames[strings.ToUpper(strings.TrimSpace(prefix))]; ok {
		return name
	}
	return "unknown"
}
