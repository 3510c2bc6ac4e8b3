package rule

import (
	"strings"
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/imoan723/JSRecon-Buddy/pkg/entropy"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
	"github.com/stretchr/testify/require"
)

// compileForTest mirrors the matcher's compilation: RE2-compatible mode
// first, standard mode as fallback, case-insensitive multiline throughout.
func compileForTest(t *testing.T, r *types.Rule) *regexp2.Regexp {
	t.Helper()
	re, err := regexp2.Compile(r.Pattern, regexp2.RE2|regexp2.IgnoreCase|regexp2.Multiline)
	if err != nil {
		re, err = regexp2.Compile(r.Pattern, regexp2.IgnoreCase|regexp2.Multiline)
	}
	require.NoError(t, err, "rule %s pattern does not compile", r.ID)
	return re
}

// capture runs the rule against input and returns the captured value, or
// "" when the pattern does not match.
func capture(t *testing.T, re *regexp2.Regexp, r *types.Rule, input string) string {
	t.Helper()
	m, err := re.FindStringMatch(input)
	require.NoError(t, err, "rule %s errored on %q", r.ID, input)
	if m == nil {
		return ""
	}
	g := m.GroupByNumber(r.CaptureGroup)
	require.NotNil(t, g, "rule %s capture group %d missing", r.ID, r.CaptureGroup)
	return g.String()
}

func TestCatalog_ExamplesMatchAndClearGate(t *testing.T) {
	rules, err := NewLoader().LoadBuiltin()
	require.NoError(t, err)

	for _, r := range rules {
		require.NotEmpty(t, r.Examples, "rule %s has no examples", r.ID)
		re := compileForTest(t, r)

		for _, example := range r.Examples {
			value := capture(t, re, r, example)
			require.NotEmpty(t, value, "rule %s did not match example %q", r.ID, example)
			if r.MinEntropy > 0 {
				require.GreaterOrEqual(t, entropy.Shannon(value), r.MinEntropy,
					"rule %s example capture %q fails its own entropy gate", r.ID, value)
			}
		}
	}
}

func TestCatalog_NegativeExamplesRejected(t *testing.T) {
	rules, err := NewLoader().LoadBuiltin()
	require.NoError(t, err)

	for _, r := range rules {
		re := compileForTest(t, r)

		for _, negative := range r.NegativeExamples {
			value := capture(t, re, r, negative)
			if value == "" {
				continue // structural rejection
			}
			require.Greater(t, r.MinEntropy, 0.0,
				"rule %s matched negative example %q with no entropy gate to reject it", r.ID, negative)
			require.Less(t, entropy.Shannon(value), r.MinEntropy,
				"rule %s negative example capture %q passes the entropy gate", r.ID, value)
		}
	}
}

func TestCatalog_KeywordsAppearInExamples(t *testing.T) {
	// Prefilter correctness depends on at least one keyword appearing in
	// any text a rule can match; examples are the proxy for that.
	rules, err := NewLoader().LoadBuiltin()
	require.NoError(t, err)

	for _, r := range rules {
		if len(r.Keywords) == 0 {
			continue
		}
		for _, example := range r.Examples {
			require.True(t, containsAnyKeyword(example, r.Keywords),
				"rule %s example %q contains none of its keywords %v", r.ID, example, r.Keywords)
		}
	}
}

func containsAnyKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
