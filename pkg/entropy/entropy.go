// Package entropy scores the randomness of candidate strings. Real
// credentials tend to be high-entropy; words, padding, and placeholder
// values are not, so catalog rules use a minimum-entropy gate to suppress
// structural false positives.
package entropy

import "math"

// Shannon returns the Shannon entropy of s in bits per symbol, computed
// over its rune-frequency distribution. The empty string scores 0.
func Shannon(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]int)
	total := 0
	for _, r := range s {
		freq[r]++
		total++
	}
	var h float64
	for _, n := range freq {
		p := float64(n) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}
