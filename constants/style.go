package constants

import "strings"

// Styles form a closed vocabulary; filename inference and the normalizer only
// ever assign one of these.
const StyleFreestyle = "freestyle"

var allStyles = []string{
	StyleFreestyle,
	"saiyan",
	"namekian",
	"orange",
	"red",
	"blue",
	"black",
}

// StyleStrings returns the closed style vocabulary.
func StyleStrings() []string {
	result := make([]string, len(allStyles))
	copy(result, allStyles)
	return result
}

// StyleFromToken reports whether a single word names a style, returning the
// canonical lower-case form.
func StyleFromToken(tok string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(tok))
	for _, st := range allStyles {
		if s == st {
			return st, true
		}
	}
	return "", false
}
