package metrics

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lowerCaser = cases.Lower(language.Und)

// Normalize applies the fixed WER normalization pipeline (spec §4.3.1):
// NFC-normalize, lowercase, strip runes in Unicode category P (punctuation),
// collapse whitespace, trim. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = lowerCaser.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// ComputeWER calculates word error rate between reference and hypothesis.
// Both strings pass through Normalize first. WER = edits / max(1, len(refWords));
// unlike a raw Levenshtein ratio this never divides by zero on an empty
// reference, and is allowed to exceed 1 on a pathological hypothesis.
func ComputeWER(reference, hypothesis string) float64 {
	ref := strings.Fields(Normalize(reference))
	hyp := strings.Fields(Normalize(hypothesis))

	refLen := len(ref)
	if refLen == 0 {
		refLen = 1
	}
	if len(ref) == 0 && len(hyp) == 0 {
		return 0
	}

	// Word-level Levenshtein distance, two-row optimization.
	prev := make([]int, len(hyp)+1)
	curr := make([]int, len(hyp)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ref); i++ {
		curr[0] = i
		for j := 1; j <= len(hyp); j++ {
			cost := 1
			if ref[i-1] == hyp[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}

	edits := prev[len(hyp)]
	return float64(edits) / float64(refLen)
}

// Accuracy maps a WER value to a percentage: 100 * max(0, 1-wer), rounded
// to one decimal place per spec §8's testable property.
func Accuracy(wer float64) float64 {
	acc := 100 * max(0, 1-wer)
	return roundTo1(acc)
}

func roundTo1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
