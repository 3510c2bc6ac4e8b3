package types

// Rule is a detection rule from the secret catalog.
//
// Patterns are applied case-insensitively with multiline semantics.
// MinEntropy is a post-match gate on the captured value, not a pattern
// constraint: a structural match below the threshold is discarded.
type Rule struct {
	ID               string   // e.g., "jsrb.gcp.1"
	Description      string   // human-readable, shown in reports
	Pattern          string   // regex pattern source
	CaptureGroup     int      // group holding the secret value (0 = whole match)
	MinEntropy       float64  // minimum Shannon entropy of the capture, 0 = ungated
	Keywords         []string // lowercase literals for Aho-Corasick prefiltering
	Examples         []string // positive test cases
	NegativeExamples []string // negative test cases
	References       []string // documentation URLs
}
