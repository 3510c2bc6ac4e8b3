package rule

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// ValidateRule checks rule consistency and required fields. The pattern
// must compile under the same engine and flags the matcher uses, and the
// capture group must exist in the compiled pattern.
func ValidateRule(r *types.Rule) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}
	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if r.Description == "" {
		return fmt.Errorf("rule %s: description is required", r.ID)
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule %s: pattern is required", r.ID)
	}

	re, err := regexp2.Compile(r.Pattern, regexp2.RE2|regexp2.IgnoreCase|regexp2.Multiline)
	if err != nil {
		// Some patterns need backtracking features RE2 mode rejects.
		re, err = regexp2.Compile(r.Pattern, regexp2.IgnoreCase|regexp2.Multiline)
		if err != nil {
			return fmt.Errorf("rule %s: invalid pattern: %w", r.ID, err)
		}
	}

	if r.CaptureGroup < 0 {
		return fmt.Errorf("rule %s: capture group must be >= 0", r.ID)
	}
	groups := re.GetGroupNumbers()
	maxGroup := 0
	for _, g := range groups {
		if g > maxGroup {
			maxGroup = g
		}
	}
	if r.CaptureGroup > maxGroup {
		return fmt.Errorf("rule %s: capture group %d exceeds pattern's %d group(s)", r.ID, r.CaptureGroup, maxGroup)
	}

	if r.MinEntropy < 0 || r.MinEntropy >= 8 {
		return fmt.Errorf("rule %s: min entropy %.2f out of range [0, 8)", r.ID, r.MinEntropy)
	}
	for _, kw := range r.Keywords {
		if kw == "" {
			return fmt.Errorf("rule %s: empty keyword", r.ID)
		}
		if kw != strings.ToLower(kw) {
			return fmt.Errorf("rule %s: keyword %q must be lowercase", r.ID, kw)
		}
	}
	return nil
}
