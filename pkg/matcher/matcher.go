// Package matcher compiles the active detector set for a scan: the fixed
// structural detectors (subdomains, endpoints, DOM sinks, source maps,
// library banners, interesting parameters) plus one detector per catalog
// rule, and iterates their matches over decoded page content.
package matcher

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// Config describes what to compile into a DetectorSet.
type Config struct {
	// Rules is the catalog to build secret detectors from. A rule whose
	// pattern fails to compile is skipped with a warning, not fatal.
	Rules []*types.Rule

	// Params is the interesting-parameter name list. Empty means the
	// Interesting Parameters category is absent from the set.
	Params []string

	// Logger receives per-rule compile warnings. Nil means slog.Default.
	Logger *slog.Logger
}

// DetectorSet is the compiled output of one scan configuration. Structural
// detectors always run; rule detectors are narrowed per source by the
// keyword prefilter before running.
type DetectorSet struct {
	structural []*Detector
	rules      []*Detector
	byRuleID   map[string]*Detector
}

// Compile builds the full detector set for cfg. Structural patterns are
// compiled once from package constants and cannot fail; catalog rules are
// compiled individually so one bad pattern cannot suppress the rest.
func Compile(cfg Config) (*DetectorSet, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ds := &DetectorSet{
		structural: structuralDetectors(),
		byRuleID:   make(map[string]*Detector),
	}

	if d, err := paramDetector(cfg.Params); err != nil {
		return nil, err
	} else if d != nil {
		ds.structural = append(ds.structural, d)
	}

	for _, r := range cfg.Rules {
		d, err := ruleDetector(r)
		if err != nil {
			logger.Warn("skipping rule with invalid pattern",
				slog.String("rule", r.ID),
				slog.String("error", err.Error()))
			continue
		}
		ds.rules = append(ds.rules, d)
		ds.byRuleID[r.ID] = d
	}

	return ds, nil
}

// Structural returns the always-active detectors, including the
// interesting-parameter detector when one was configured.
func (ds *DetectorSet) Structural() []*Detector {
	return ds.structural
}

// RuleDetectors returns every compiled catalog-rule detector in catalog
// order.
func (ds *DetectorSet) RuleDetectors() []*Detector {
	return ds.rules
}

// ForRule returns the detector compiled for a catalog rule ID, or nil when
// the rule was filtered out or failed to compile.
func (ds *DetectorSet) ForRule(id string) *Detector {
	return ds.byRuleID[id]
}

// Len returns the total number of active detectors.
func (ds *DetectorSet) Len() int {
	return len(ds.structural) + len(ds.rules)
}

// paramDetector builds the Interesting Parameters detector from the
// configured names. Each name is escaped before interpolation so
// configuration input cannot inject pattern syntax. An empty list compiles
// to no detector at all.
func paramDetector(params []string) (*Detector, error) {
	quoted := make([]string, 0, len(params))
	for _, p := range params {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(p))
	}
	if len(quoted) == 0 {
		return nil, nil
	}

	pattern := fmt.Sprintf(`(?i)[?&"'{,\s](%s)["']?\s*[:=]`, strings.Join(quoted, "|"))
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling parameter detector: %w", err)
	}
	return &Detector{
		Category:     types.CategoryParameters,
		ContextMode:  types.ContextSnippet,
		CaptureGroup: 1,
		std:          re,
	}, nil
}
