package rule

// yamlRule is the intermediate struct for parsing YAML rule files.
// Maps YAML fields to types.Rule.
type yamlRule struct {
	ID               string   `yaml:"id"`
	Description      string   `yaml:"description"`
	Pattern          string   `yaml:"pattern"`
	CaptureGroup     int      `yaml:"capture_group,omitempty"`
	MinEntropy       float64  `yaml:"min_entropy,omitempty"`
	Keywords         []string `yaml:"keywords,omitempty"`
	Examples         []string `yaml:"examples,omitempty"`
	NegativeExamples []string `yaml:"negative_examples,omitempty"`
	References       []string `yaml:"references,omitempty"`
}

// yamlRulesFile is the top-level structure of a rules YAML file: a "rules"
// array at the top level.
type yamlRulesFile struct {
	Rules []yamlRule `yaml:"rules"`
}
