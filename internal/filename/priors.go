// Package filename infers structured priors from card image file names.
// Scraped files look like "C02-Nail-Protector-Lv.-2-2.jpg": a printed-number
// prefix, a hyphenated title slug, an optional level token, and sometimes a
// duplicate numeric suffix added by the crawler on naming collisions.
package filename

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/entity"
)

var (
	reDupSuffix   = regexp.MustCompile(`-(\d+)$`)
	reLevelBefore = regexp.MustCompile(`(?i)lv\.?\s*$`)
	reNumberSplit = regexp.MustCompile(`^([A-Za-z]{1,3}\d+)[-_ ]+(.+)$`)
	reLevelToken  = regexp.MustCompile(`(?i)\blv\.?\s*([1-4])\b`)
	reSpaces      = regexp.MustCompile(`\s+`)
	reAlphaWord   = regexp.MustCompile(`[A-Za-z]+`)
	reBareLevel   = regexp.MustCompile(`(?i)\blv\s+([1-4])\b`)
)

// Infer parses a best-guess prior from an image file name. Pure, no I/O,
// never fails: absent evidence yields printed number "UNK000", rarity "UNK"
// and card type "unknown".
func Infer(imageFileName string) entity.FilenamePriors {
	stem := strings.TrimSuffix(imageFileName, filepath.Ext(imageFileName))
	stem = collapseDupSuffix(stem)

	printedNumber := constants.UnknownPrintedNumber
	slug := stem
	if m := reNumberSplit.FindStringSubmatch(stem); m != nil {
		printedNumber = strings.ToUpper(m[1])
		slug = m[2]
	}

	nameGuess := humanize(slug)

	priors := entity.FilenamePriors{
		FileStem:      stem,
		PrintedNumber: printedNumber,
		RarityPrefix:  constants.RarityPrefixFromNumber(printedNumber),
		NameGuess:     nameGuess,
		CardTypeGuess: string(constants.TypeUnknown),
	}

	if m := reLevelToken.FindStringSubmatch(nameGuess); m != nil {
		lvl := int(m[1][0] - '0')
		priors.PersonalityLevel = &lvl
	}

	if w := reAlphaWord.FindString(nameGuess); w != "" {
		priors.CharacterKey = strings.ToLower(w)
	}

	words := strings.Fields(nameGuess)
	if len(words) > 0 {
		if style, ok := constants.StyleFromToken(words[0]); ok {
			priors.StyleGuess = style
		}
	}

	priors.CardTypeGuess = guessType(nameGuess, priors)
	return priors
}

// collapseDupSuffix strips trailing "-N" collision suffixes while preserving a
// legitimate "Lv.-N" level token at the end of the stem.
func collapseDupSuffix(stem string) string {
	for {
		loc := reDupSuffix.FindStringIndex(stem)
		if loc == nil || loc[0] == 0 {
			return stem
		}
		before := stem[:loc[0]]
		if reLevelBefore.MatchString(before) {
			return stem
		}
		stem = before
	}
}

func humanize(slug string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	s = reSpaces.ReplaceAllString(strings.TrimSpace(s), " ")
	// "Lv. 2" comes out of "Lv.-2" naturally; fix the dotless variant too
	s = reBareLevel.ReplaceAllString(s, "Lv. $1")
	words := strings.Fields(s)
	for i, w := range words {
		if w[0] >= 'a' && w[0] <= 'z' {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func guessType(nameGuess string, priors entity.FilenamePriors) string {
	lower := strings.ToLower(nameGuess)
	switch {
	case priors.PersonalityLevel != nil:
		return string(constants.TypePersonality)
	case strings.Contains(lower, "mastery"):
		return string(constants.TypeMastery)
	case strings.Contains(lower, "drill"):
		return string(constants.TypeDrill)
	case strings.Contains(lower, "dragon ball"):
		return string(constants.TypeDragonBall)
	}
	return string(constants.TypeUnknown)
}
