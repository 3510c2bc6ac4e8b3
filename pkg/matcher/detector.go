package matcher

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// ruleMatchTimeout bounds a single regexp2 match attempt so a pathological
// pattern trips the detector-isolation path instead of hanging the scan.
const ruleMatchTimeout = 5 * time.Second

// Detector is one compiled, category-tagged pattern. Structural detectors
// use the standard library engine; catalog-rule detectors use regexp2 so
// rules written with backtracking features still load. Exactly one of std
// and perl is set.
type Detector struct {
	Category     string
	RuleID       string  // owning catalog rule, empty for structural detectors
	ContextMode  types.ContextMode
	CaptureGroup int
	MinEntropy   float64

	std  *regexp.Regexp
	perl *regexp2.Regexp
}

// Span is one accepted pattern match: the trimmed captured value plus the
// byte extent of the whole match in the scanned text.
type Span struct {
	Value  string
	Offset int
	Length int
}

// ruleDetector compiles one catalog rule. RE2 compatibility mode is tried
// first; patterns needing backtracking features fall back to standard mode.
func ruleDetector(r *types.Rule) (*Detector, error) {
	re, err := regexp2.Compile(r.Pattern, regexp2.RE2|regexp2.IgnoreCase|regexp2.Multiline)
	if err != nil {
		re, err = regexp2.Compile(r.Pattern, regexp2.IgnoreCase|regexp2.Multiline)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern for rule %s: %w", r.ID, err)
		}
	}
	re.MatchTimeout = ruleMatchTimeout

	return &Detector{
		Category:     types.CategorySecrets,
		RuleID:       r.ID,
		ContextMode:  types.ContextSnippet,
		CaptureGroup: r.CaptureGroup,
		MinEntropy:   r.MinEntropy,
		perl:         re,
	}, nil
}

// Find iterates every non-overlapping match of the detector's pattern over
// content. Matches whose capture trims to the empty string are discarded
// here; category validation happens in the scan engine.
func (d *Detector) Find(content string) ([]Span, error) {
	if d.std != nil {
		return d.findStd(content), nil
	}
	return d.findPerl(content)
}

func (d *Detector) findStd(content string) []Span {
	idx := d.std.FindAllStringSubmatchIndex(content, -1)
	if idx == nil {
		return nil
	}
	spans := make([]Span, 0, len(idx))
	for _, m := range idx {
		g := d.CaptureGroup * 2
		if g+1 >= len(m) || m[g] < 0 {
			continue
		}
		value := strings.TrimSpace(content[m[g]:m[g+1]])
		if value == "" {
			continue
		}
		spans = append(spans, Span{Value: value, Offset: m[0], Length: m[1] - m[0]})
	}
	return spans
}

// findPerl walks regexp2 matches. regexp2 reports rune indexes; they are
// mapped back to byte offsets so spans index the content string directly.
func (d *Detector) findPerl(content string) ([]Span, error) {
	m, err := d.perl.FindStringMatch(content)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", d.RuleID, err)
	}

	conv := newRuneOffsets(content)
	var spans []Span
	for m != nil {
		value := m.String()
		if d.CaptureGroup > 0 {
			if grp := m.GroupByNumber(d.CaptureGroup); grp != nil && len(grp.Captures) > 0 {
				value = grp.Capture.String()
			} else {
				value = ""
			}
		}
		value = strings.TrimSpace(value)
		if value != "" {
			start := conv.byteOffset(m.Index)
			end := conv.byteOffset(m.Index + m.Length)
			spans = append(spans, Span{Value: value, Offset: start, Length: end - start})
		}

		m, err = d.perl.FindNextMatch(m)
		if err != nil {
			return spans, fmt.Errorf("rule %s: %w", d.RuleID, err)
		}
	}
	return spans, nil
}

// runeOffsets converts rune indexes to byte offsets. For pure-ASCII
// content (the common case for scripts) the mapping is the identity and no
// table is built.
type runeOffsets struct {
	table []int // rune index -> byte offset, nil when ASCII
	size  int
}

func newRuneOffsets(s string) *runeOffsets {
	ro := &runeOffsets{size: len(s)}
	if len(s) == utf8.RuneCountInString(s) {
		return ro
	}
	ro.table = make([]int, 0, utf8.RuneCountInString(s)+1)
	for i := range s {
		ro.table = append(ro.table, i)
	}
	ro.table = append(ro.table, len(s))
	return ro
}

func (ro *runeOffsets) byteOffset(runeIdx int) int {
	if ro.table == nil {
		if runeIdx > ro.size {
			return ro.size
		}
		return runeIdx
	}
	if runeIdx >= len(ro.table) {
		return ro.size
	}
	return ro.table[runeIdx]
}
