package normalize

import (
	"regexp"
)

var reInteger = regexp.MustCompile(`\d+`)

// resolveStageLadder prefers the LLM's array; otherwise it scans all text for
// the maximal non-increasing run of integers terminating logically at 0
// (appending the 0 when absent). Consecutive equal values are deduplicated.
func resolveStageLadder(explicit []int, text string) []int {
	if len(explicit) > 0 {
		return tidyLadder(explicit)
	}

	nums := make([]int, 0, 16)
	for _, tok := range reInteger.FindAllString(text, -1) {
		if len(tok) > 7 {
			continue // line noise, not a stage value
		}
		nums = append(nums, atoi(tok))
	}
	if len(nums) == 0 {
		return nil
	}

	// Longest non-increasing contiguous run.
	bestStart, bestEnd := 0, 0
	start := 0
	for i := 1; i <= len(nums); i++ {
		if i == len(nums) || nums[i] > nums[i-1] {
			if i-start > bestEnd-bestStart {
				bestStart, bestEnd = start, i
			}
			start = i
		}
	}
	run := nums[bestStart:bestEnd]
	if len(run) < 2 {
		return nil
	}

	// Terminate at the first zero; append one when absent.
	out := make([]int, 0, len(run)+1)
	for _, v := range run {
		out = append(out, v)
		if v == 0 {
			break
		}
	}
	if out[len(out)-1] != 0 {
		out = append(out, 0)
	}
	return tidyLadder(out)
}

// tidyLadder dedupes consecutive equal values and guarantees a single
// trailing zero.
func tidyLadder(in []int) []int {
	out := make([]int, 0, len(in))
	for _, v := range in {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	if out[len(out)-1] != 0 {
		out = append(out, 0)
	}
	return out
}
