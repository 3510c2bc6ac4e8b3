// Package prefilter narrows the rule catalog before regex evaluation.
// Most secret rules anchor on a literal marker (AKIA, AIza, xoxb); an
// Aho-Corasick pass over the content finds which markers are present so
// the engine only runs the patterns that can possibly match. Rules without
// keywords are always evaluated, so disabling the prefilter never changes
// findings, only cost.
package prefilter

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// Prefilter selects catalog rules whose keywords appear in a content
// source. Keywords are lowercase; content is lowercased before matching
// because rule patterns are case-insensitive.
type Prefilter struct {
	matcher   *ahocorasick.Matcher
	keywords  []string
	rules     []*types.Rule
	byKeyword map[string][]int // keyword -> indexes into rules
	alwaysOn  []int            // rules without keywords
}

// New builds a prefilter over rules. Rule order is preserved by Filter.
func New(rules []*types.Rule) *Prefilter {
	pf := &Prefilter{
		rules:     rules,
		byKeyword: make(map[string][]int),
	}

	seen := make(map[string]bool)
	for i, r := range rules {
		if len(r.Keywords) == 0 {
			pf.alwaysOn = append(pf.alwaysOn, i)
			continue
		}
		for _, kw := range r.Keywords {
			if !seen[kw] {
				seen[kw] = true
				pf.keywords = append(pf.keywords, kw)
			}
			pf.byKeyword[kw] = append(pf.byKeyword[kw], i)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}
	return pf
}

// Filter returns the rules eligible for content, in catalog order: every
// keyword-less rule plus every rule with at least one keyword hit.
func (pf *Prefilter) Filter(content string) []*types.Rule {
	eligible := make([]bool, len(pf.rules))
	for _, i := range pf.alwaysOn {
		eligible[i] = true
	}

	if pf.matcher != nil {
		hits := pf.matcher.Match([]byte(strings.ToLower(content)))
		for _, hit := range hits {
			for _, i := range pf.byKeyword[pf.keywords[hit]] {
				eligible[i] = true
			}
		}
	}

	result := make([]*types.Rule, 0, len(pf.rules))
	for i, ok := range eligible {
		if ok {
			result = append(result, pf.rules[i])
		}
	}
	return result
}
