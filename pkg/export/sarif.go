package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// SARIF 2.1.0 constants.
const (
	SchemaURI    = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	SarifVersion = "2.1.0"
	ToolName     = "jsrecon-buddy"
	ToolVersion  = "0.1.0"
)

// Report is the top-level SARIF report structure.
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool.
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool.
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata and the contributing rule descriptors.
type Driver struct {
	Name    string       `json:"name"`
	Version string       `json:"version"`
	Rules   []Descriptor `json:"rules,omitempty"`
}

// Descriptor is a SARIF reportingDescriptor: one per contributing catalog
// rule, plus one per structural category.
type Descriptor struct {
	ID               string           `json:"id"`
	Name             string           `json:"name,omitempty"`
	ShortDescription ShortDescription `json:"shortDescription"`
	HelpURI          string           `json:"helpUri,omitempty"`
}

// ShortDescription contains rule description text.
type ShortDescription struct {
	Text string `json:"text"`
}

// Result represents a single occurrence of a finding.
type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
}

// Message contains the result message.
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found.
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation names the content source and the span within it.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

// ArtifactLocation identifies the content source: the page document, an
// inline script label, or an external script URL.
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region is a character span in the decoded source text.
type Region struct {
	CharOffset int      `json:"charOffset"`
	CharLength int      `json:"charLength,omitempty"`
	Snippet    *Snippet `json:"snippet,omitempty"`
}

// Snippet contains the matched text.
type Snippet struct {
	Text string `json:"text"`
}

// SARIF writes res as a SARIF 2.1.0 run: one reportingDescriptor per
// contributing rule and category, one result per occurrence. catalog
// supplies descriptions for catalog rule IDs; unknown IDs still get a
// bare descriptor.
func SARIF(w io.Writer, pageURL string, res *types.ScanResult, catalog []*types.Rule) error {
	report := newReport()
	run := &report.Runs[0]

	byID := make(map[string]*types.Rule, len(catalog))
	for _, r := range catalog {
		byID[r.ID] = r
	}

	descriptors := make(map[string]Descriptor)
	for _, name := range categoryOrder(res) {
		byValue := res.Results[name]
		values := make([]string, 0, len(byValue))
		for v := range byValue {
			values = append(values, v)
		}
		sort.Strings(values)

		for _, v := range values {
			for _, occ := range byValue[v].Occurrences {
				id := occ.RuleID
				if id == "" {
					id = categoryRuleID(name)
				}
				if _, ok := descriptors[id]; !ok {
					descriptors[id] = newDescriptor(id, name, byID[occ.RuleID])
				}
				run.Results = append(run.Results, Result{
					RuleID:  id,
					Level:   categoryLevel(name),
					Message: Message{Text: fmt.Sprintf("%s: %s", name, v)},
					Locations: []Location{{
						PhysicalLocation: PhysicalLocation{
							ArtifactLocation: ArtifactLocation{URI: occ.Source},
							Region:           newRegion(res, occ),
						},
					}},
				})
			}
		}
	}

	ids := make([]string, 0, len(descriptors))
	for id := range descriptors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, descriptors[id])
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding sarif report: %w", err)
	}
	return nil
}

func newReport() *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: SarifVersion,
		Runs: []Run{{
			Tool: Tool{
				Driver: Driver{
					Name:    ToolName,
					Version: ToolVersion,
				},
			},
			Results: []Result{},
		}},
	}
}

func newDescriptor(id, category string, rule *types.Rule) Descriptor {
	d := Descriptor{
		ID:               id,
		ShortDescription: ShortDescription{Text: category},
	}
	if rule != nil {
		if rule.Description != "" {
			d.ShortDescription.Text = rule.Description
		}
		if len(rule.References) > 0 {
			d.HelpURI = rule.References[0]
		}
	}
	return d
}

func newRegion(res *types.ScanResult, occ types.Occurrence) Region {
	region := Region{CharOffset: occ.Offset, CharLength: occ.Length}
	if snippet := res.Context(occ, 0); snippet != "" {
		region.Snippet = &Snippet{Text: snippet}
	}
	return region
}

// categoryRuleID derives a stable descriptor ID for structural detections,
// e.g. "jsrb.category.potential-dom-xss-sinks".
func categoryRuleID(category string) string {
	slug := strings.ToLower(category)
	slug = strings.ReplaceAll(slug, " ", "-")
	return "jsrb.category." + slug
}

// categoryLevel maps a category to a SARIF severity level. Secrets and DOM
// sinks are actionable findings; the rest is reconnaissance inventory.
func categoryLevel(category string) string {
	switch category {
	case types.CategorySecrets, types.CategoryDOMSinks:
		return "warning"
	default:
		return "note"
	}
}
