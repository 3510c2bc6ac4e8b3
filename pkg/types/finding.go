package types

// Occurrence records one place a finding's value appeared. Context is
// encoded lazily: Offset and Length index the decoded text kept in
// ScanResult.ContentMap under Source, and are materialized on demand by
// ScanResult.Context.
type Occurrence struct {
	Source string `json:"source"`           // ContentSource label
	RuleID string `json:"ruleId,omitempty"` // owning catalog rule, empty for structural detectors
	Offset int    `json:"offset"`           // byte offset of the match in the decoded text
	Length int    `json:"length"`           // byte length of the match
}

// Finding is a unique detected value within a category together with every
// place it occurred. Findings are deduplicated by exact value: the same
// literal string across several sources collapses into one Finding with
// multiple Occurrences, kept in first-discovery order.
type Finding struct {
	Value       string       `json:"value"`
	Category    string       `json:"category"`
	Occurrences []Occurrence `json:"occurrences"`
}
