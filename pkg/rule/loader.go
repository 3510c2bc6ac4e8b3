package rule

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
	"gopkg.in/yaml.v3"
)

// Loader handles loading detection rules from YAML files.
type Loader struct {
	fs fs.FS // filesystem holding rules/*.yml
}

// NewLoader creates a loader backed by the embedded built-in catalog.
func NewLoader() *Loader {
	return &Loader{fs: builtinRulesFS}
}

// NewLoaderWithFS creates a loader with a custom filesystem. Tests use
// fstest.MapFS; the CLI uses this for --rules-dir.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{fs: fsys}
}

// LoadRule parses a single rule from YAML bytes. Returns an error if the
// YAML is invalid, holds zero or multiple rules, or fails validation.
func (l *Loader) LoadRule(data []byte) (*types.Rule, error) {
	var yamlFile yamlRulesFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(yamlFile.Rules) == 0 {
		return nil, fmt.Errorf("no rules found in YAML")
	}
	if len(yamlFile.Rules) > 1 {
		return nil, fmt.Errorf("expected single rule, found %d", len(yamlFile.Rules))
	}

	r := convertYAMLRule(yamlFile.Rules[0])
	if err := ValidateRule(r); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadRuleFile loads a single rule from a YAML file path.
func (l *Loader) LoadRuleFile(path string) (*types.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return l.LoadRule(data)
}

// LoadBuiltin loads every rule from the loader's filesystem, walking
// rules/*.yml in lexical order and preserving declaration order within
// each file. All rules are validated and duplicate IDs rejected, so the
// returned list is immutable and safe to hand to the pattern compiler.
func (l *Loader) LoadBuiltin() ([]*types.Rule, error) {
	var rules []*types.Rule
	seen := make(map[string]string) // rule ID -> file that declared it

	err := fs.WalkDir(l.fs, "rules", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		var yamlFile yamlRulesFile
		if err := yaml.Unmarshal(data, &yamlFile); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		for _, yr := range yamlFile.Rules {
			r := convertYAMLRule(yr)
			if err := ValidateRule(r); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if prev, dup := seen[r.ID]; dup {
				return fmt.Errorf("%s: duplicate rule ID %s (first declared in %s)", path, r.ID, prev)
			}
			seen[r.ID] = path
			rules = append(rules, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func convertYAMLRule(yr yamlRule) *types.Rule {
	return &types.Rule{
		ID:               yr.ID,
		Description:      yr.Description,
		Pattern:          yr.Pattern,
		CaptureGroup:     yr.CaptureGroup,
		MinEntropy:       yr.MinEntropy,
		Keywords:         yr.Keywords,
		Examples:         yr.Examples,
		NegativeExamples: yr.NegativeExamples,
		References:       yr.References,
	}
}
