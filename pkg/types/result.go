package types

import (
	"strings"
	"time"
)

// Context window radii, in characters on each side of the match.
const (
	DisplayContextRadius = 40
	FullContextRadius    = 250
)

// ScanResult is one completed scan of a page: findings grouped by category
// and deduplicated by value, plus the decoded text of every scanned source
// so context can be materialized later without re-scanning. This is the
// unit persisted by the result cache and handed to presentation.
type ScanResult struct {
	Results    map[string]map[string]*Finding `json:"resultsByCategory"`    // category -> value -> finding
	ContentMap map[string]string              `json:"contentMap,omitempty"` // source label -> decoded text
	Timestamp  time.Time                      `json:"timestamp"`
}

// NewScanResult returns an empty result with initialized maps and the
// timestamp set to now.
func NewScanResult() *ScanResult {
	return &ScanResult{
		Results:    make(map[string]map[string]*Finding),
		ContentMap: make(map[string]string),
		Timestamp:  time.Now(),
	}
}

// Add records an occurrence of value under category, creating the Finding
// on first sight. Occurrences at an identical (source, offset) are dropped
// so overlapping chunk matches cannot double-count; otherwise append order
// preserves first-discovery order.
func (r *ScanResult) Add(category, value string, occ Occurrence) {
	byValue := r.Results[category]
	if byValue == nil {
		byValue = make(map[string]*Finding)
		r.Results[category] = byValue
	}
	f := byValue[value]
	if f == nil {
		f = &Finding{Value: value, Category: category}
		byValue[value] = f
	}
	for _, prev := range f.Occurrences {
		if prev.Source == occ.Source && prev.Offset == occ.Offset {
			return
		}
	}
	f.Occurrences = append(f.Occurrences, occ)
}

// FindingCount returns the number of unique findings across all categories.
func (r *ScanResult) FindingCount() int {
	n := 0
	for _, byValue := range r.Results {
		n += len(byValue)
	}
	return n
}

// Empty reports whether the result holds no findings at all.
func (r *ScanResult) Empty() bool {
	return r.FindingCount() == 0
}

// Context materializes the text around occ from the retained content map.
// radius 0 returns the exact matched span, trimmed (line mode); a positive
// radius returns that many characters on each side with whitespace runs
// collapsed to single spaces and an ellipsis marker on each end. Returns ""
// when the source text was not retained.
func (r *ScanResult) Context(occ Occurrence, radius int) string {
	text, ok := r.ContentMap[occ.Source]
	if !ok {
		return ""
	}
	start, end := occ.Offset, occ.Offset+occ.Length
	if start < 0 || start > len(text) {
		return ""
	}
	if end > len(text) {
		end = len(text)
	}
	if radius <= 0 {
		return strings.TrimSpace(text[start:end])
	}
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	return "..." + collapseWhitespace(text[lo:hi]) + "..."
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
