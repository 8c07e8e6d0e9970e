package schema

import (
	"regexp"
	"strings"
)

// AmountResult is the outcome of resolving an amount+conditional field pair.
type AmountResult struct {
	Amount      int
	Conditional bool
	Found       bool
}

var (
	reClauseSplit = regexp.MustCompile(`[\n.;]+`)
	reValueToken  = regexp.MustCompile(`\b(\d+|x|one|two|three|four|five|six|seven|eight|nine|ten)\b`)
	reCueWord     = regexp.MustCompile(`\b(if|when|whenever|after|before|during|unless|instead)\b`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// resolveAmount implements the shared resolution routine for the
// amount+conditional pairs (rejuvenate, endurance, raise/lower anger).
//
// Explicit values win: an explicit amount or an explicit conditional flag is
// trusted as-is (conditional=true with no amount means amount 0). Otherwise
// clauses of the text (split on newline/period/semicolon) matching the
// keyword are scanned for a value token: the maximum numeric value across
// matching clauses wins; an "x" token or a conditional cue word marks the
// result conditional, with amount 0 unless a numeric token was also found.
func resolveAmount(explicitAmount *int, explicitConditional *bool, text string, keyword *regexp.Regexp) AmountResult {
	if explicitAmount != nil || explicitConditional != nil {
		out := AmountResult{Found: true}
		if explicitAmount != nil {
			out.Amount = *explicitAmount
		}
		if explicitConditional != nil {
			out.Conditional = *explicitConditional
		}
		return out
	}

	var (
		best        int
		haveNumeric bool
		conditional bool
		matched     bool
	)
	for _, clause := range reClauseSplit.Split(strings.ToLower(text), -1) {
		if !keyword.MatchString(clause) {
			continue
		}
		matched = true
		cue := reCueWord.MatchString(clause)
		for _, tok := range reValueToken.FindAllString(clause, -1) {
			switch {
			case tok == "x":
				conditional = true
			case tok[0] >= '0' && tok[0] <= '9':
				n := 0
				for _, ch := range tok {
					n = n*10 + int(ch-'0')
				}
				if n > best || !haveNumeric {
					best = n
				}
				haveNumeric = true
				if cue {
					conditional = true
				}
			default:
				if n, ok := numberWords[tok]; ok {
					if n > best || !haveNumeric {
						best = n
					}
					haveNumeric = true
					if cue {
						conditional = true
					}
				}
			}
		}
		if cue && !haveNumeric {
			conditional = true
		}
	}

	if !matched {
		return AmountResult{}
	}
	out := AmountResult{Found: true, Conditional: conditional}
	if haveNumeric {
		out.Amount = best
	}
	return out
}
